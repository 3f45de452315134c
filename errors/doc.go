// Package errors provides structured error types for the clr-host library.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). The Error type includes rich context: argument path,
// loader status code, and cause chain. No managed-side exception ever
// crosses the boundary as anything other than one of these typed errors.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncated).
//		Path("arg[2]").
//		Detail("string payload exceeds buffer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownHandle(999)
//	err := errors.ConfigInvalid(path, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLocate  Phase = "locate"  // host library discovery
	PhaseLoad    Phase = "load"    // host library loading
	PhaseInit    Phase = "init"    // runtime initialization
	PhaseResolve Phase = "resolve" // entry point resolution
	PhaseInvoke  Phase = "invoke"  // managed method invocation
	PhaseEncode  Phase = "encode"  // native to managed arguments
	PhaseDecode  Phase = "decode"  // managed to native arguments
	PhaseBridge  Phase = "bridge"  // bridge-side dispatch
)

// Kind categorizes the error
type Kind string

const (
	KindConfigInvalid      Kind = "config_invalid"
	KindLibraryLoad        Kind = "library_load"
	KindNotFound           Kind = "not_found"
	KindInvalidState       Kind = "invalid_state"
	KindAlreadyInitialized Kind = "already_initialized"
	KindConstructor        Kind = "constructor_failure"
	KindInvocation         Kind = "invocation_failure"
	KindUnknownHandle      Kind = "unknown_handle"
	KindUnsupportedTag     Kind = "unsupported_tag"
	KindTruncated          Kind = "truncated_buffer"
	KindInvalidInput       Kind = "invalid_input"
	KindExhausted          Kind = "exhausted"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Status uint32 // loader status code, 0 when not applicable
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Status != 0 {
		fmt.Fprintf(&b, " (status 0x%08x)", e.Status)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the argument or field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Status sets the loader status code
func (b *Builder) Status(rc uint32) *Builder {
	b.err.Status = rc
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ConfigInvalid creates a configuration error
func ConfigInvalid(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindConfigInvalid,
		Detail: fmt.Sprintf("runtime config %q", path),
		Cause:  cause,
	}
}

// LibraryLoad creates a host library loading error
func LibraryLoad(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLibraryLoad,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidState creates an error for an operation on a context that is
// not in the Ready state
func InvalidState(phase Phase, state string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
		Detail: fmt.Sprintf("context is %s", state),
	}
}

// AlreadyInitialized creates an error for a second initialization with
// an incompatible configuration
func AlreadyInitialized(active, requested string) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindAlreadyInitialized,
		Detail: fmt.Sprintf("runtime already initialized with %q, requested %q", active, requested),
	}
}

// Constructor creates a constructor failure error
func Constructor(typeName string, cause error) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindConstructor,
		Detail: fmt.Sprintf("construct %s", typeName),
		Cause:  cause,
	}
}

// Invocation creates an invocation failure error
func Invocation(method string, cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindInvocation,
		Detail: fmt.Sprintf("invoke %s", method),
		Cause:  cause,
	}
}

// UnknownHandle creates an error for an absent or released handle
func UnknownHandle(handle int32) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindUnknownHandle,
		Detail: fmt.Sprintf("handle %d unknown or released", handle),
		Value:  handle,
	}
}

// UnsupportedTag creates an error for an unknown type tag on decode
func UnsupportedTag(path []string, tag byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnsupportedTag,
		Path:   path,
		Detail: fmt.Sprintf("unknown type tag 0x%02x", tag),
		Value:  tag,
	}
}

// Truncated creates an error for a buffer shorter than its encoding claims
func Truncated(path []string, need, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncated,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes, have %d", need, have),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Exhausted creates an error for exhausted handle space
func Exhausted(what string) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("%s exhausted", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

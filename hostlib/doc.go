// Package hostlib loads the runtime host library and exposes its
// exports behind the clrhost.Loader contract.
//
// Open resolves the three required exports (initialize, get-delegate,
// close) up front; a library missing any of them is rejected and
// unloaded before any runtime state exists. All foreign calls go
// through raw function pointers via purego, so the package builds
// without cgo.
//
// String arguments cross into the library in the platform's char_t
// encoding: UTF-8 on Unix-likes, UTF-16 on Windows. The conversion
// lives in this package only; everything above it speaks UTF-8.
//
// LoadFuncFromDelegate turns a load-assembly delegate into the
// clrhost.LoadFunc used by the resolver, and BindTransport binds a
// bridge assembly's boundary exports into a clrhost.Transport for
// runtime.Client.
package hostlib

// Package clrhost provides a Go implementation of a native host for
// CLR-style managed runtimes.
//
// The library loads a runtime host library (the hostfxr loader contract),
// initializes the managed runtime from a runtime configuration file, and
// routes method invocations to managed objects through an opaque handle
// table so that native code never holds a managed reference directly.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	clrhost/            Root package with shared Loader, Transport and EntryPoint contracts
//	├── locator/        Host library discovery across runtime installations
//	├── hostlib/        Host library loading and export resolution (purego)
//	├── runtime/        Runtime context lifecycle and the native-side bridge client
//	├── resolver/       Managed entry point resolution with caching
//	├── codec/          Tagged argument encoding across the call boundary
//	├── bridge/         Object handle table and method dispatch (bridge side)
//	├── wasmhost/       wazero-backed host implementation for WASM guests
//	└── errors/         Structured error types for debugging
//
// # Quick Start
//
// Initialize a runtime and call into it:
//
//	host, err := runtime.OpenDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rctx, err := host.Initialize("app.runtimeconfig.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rctx.Close()
//
//	load, err := rctx.LoadFunc()
//	res := resolver.New(load)
//	entry, err := res.Resolve("App.dll", "App.Startup, App", "Run")
//	rc, err := entry.Invoke(payload)
//
// # Handle Lifecycle
//
// Managed objects created through the bridge are identified by opaque
// integer handles. A handle stays valid until it is explicitly released;
// releasing it a second time fails rather than touching freed state.
// Handles are allocated monotonically and never reused for a different
// live object.
//
// # Thread Safety
//
// The handle table and the resolution caches are safe for concurrent use.
// The bridge provides no per-object locking: two native threads invoking
// methods on the same handle race on the underlying managed object, and
// callers must serialize such calls themselves.
//
// # Cancellation
//
// Once a managed call has been dispatched there is no supported way to
// abort it from the native side. A call that never returns leaks the
// calling thread; timeout policy belongs to the caller, layered above
// these blocking calls.
package clrhost

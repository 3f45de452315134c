// Package runtime manages the lifecycle of a hosted managed runtime
// and provides the native-side client for the bridge boundary.
//
// # Lifecycle
//
// A Host owns at most one live Context. Initialize is serialized and
// idempotent for a matching configuration; an incompatible
// configuration while a context is live is a hard failure. A Context
// moves Uninitialized -> Initializing -> Ready -> Closed, forward only.
// Close is idempotent and terminal: later calls on the context fail
// with an invalid-state error instead of dereferencing dead native
// state.
//
// # Calling Managed Code
//
// Client wraps a Transport with typed create/invoke/release operations
// and the WithInstance helper, which guarantees the created handle is
// released on every exit path. Initialize may take non-trivial
// wall-clock time; it is the only long-blocking operation in the
// package. Dispatched managed calls cannot be cancelled from the
// native side.
package runtime

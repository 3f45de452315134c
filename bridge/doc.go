// Package bridge implements the managed-side endpoint of the hosting
// boundary: an object handle table plus method dispatch.
//
// # Handle Table
//
// The Table maps integer handles to live objects:
//
//	table := bridge.NewTable()
//
//	handle, err := table.Insert(myValue)
//	value, ok := table.Get(handle)
//	value, ok = table.Remove(handle)
//
// Handles are allocated monotonically and never reused for a different
// live object. Handle 0 is reserved and always invalid. An operation on
// a handle that was released or never issued fails with an
// unknown-handle error; it never touches freed state.
//
// # Type Registry
//
// Types are registered as dispatch tables, either explicitly:
//
//	reg.Register(&bridge.TypeDescriptor{
//	    Assembly: "MathLib",
//	    Name:     "Calculator.Accumulator",
//	    New:      newAccumulator,
//	    Methods:  map[string]bridge.Method{"Add": addMethod},
//	})
//
// or by reflection over a struct prototype:
//
//	reg.RegisterStruct("MathLib", &Accumulator{})
//
// # Boundary Operations
//
// CreateInstance, InvokeMethod and ReleaseInstance follow the wire
// contract exactly: -1 on any failure, 0 on success, 1 on success with
// a result handle. Every bridge-side panic is recovered, logged
// internally, and reported as the uniform failure code; nothing else
// crosses the boundary.
//
// # Concurrency
//
// The table and registry are safe for concurrent use. The bridge
// provides no per-object locking: concurrent invocations on the same
// handle reach the underlying object concurrently, and callers must
// serialize them if the object requires it.
//
// # Resource Discipline
//
// Released handles let the underlying object become collectible; values
// implementing Disposer are disposed at release. Native callers should
// pair every create with a release on all exit paths (see
// runtime.Client.WithInstance).
package bridge

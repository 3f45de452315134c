// Package resolver caches managed entry point resolutions.
//
// A Resolver wraps the load-assembly-and-get-function-pointer
// capability obtained from a runtime context. Successful resolutions
// are cached by their (assembly path, type name, method name) triple:
// resolving the same triple again returns the identical entry point
// without touching the loader, and concurrent first resolutions
// collapse into a single loader call. Managed entry points never
// unload in this hosting model, so cached entries stay valid for the
// lifetime of the runtime context they came from.
//
// The cache is a bounded LRU (WithCacheSize, default 256). Past
// capacity the coldest triple is evicted and its next resolution goes
// back through the loader; resolution is idempotent on the managed
// side, so the re-resolved entry point is behaviorally identical even
// though it is a fresh value. Size the cache to the working set when
// pointer identity across the whole process lifetime matters.
package resolver

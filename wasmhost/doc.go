// Package wasmhost backs the host loader and object boundary contracts
// with wazero. Guest .wasm modules stand in for the managed side:
// assemblies are module files, entry points and boundary operations are
// guest exports, argument buffers travel through the guest's exported
// allocator.
//
// Delegate tokens issued by GetDelegate are opaque; unlike the native
// loader they are not callable function pointers and are honored only
// by this runtime's LoadFunc and BindTransport.
package wasmhost

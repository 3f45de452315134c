package hostlib

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	clrhost "github.com/hostbridge/clr-host"
)

// unmanagedCallersOnly is the sentinel delegate type name requesting a
// raw function pointer to an unmanaged-callers-only method.
const unmanagedCallersOnly = ^uintptr(0)

// entryPoint wraps a resolved managed entry point of the default shape:
// int32 fn(void *arg, int32 size).
type entryPoint struct {
	fn uintptr
}

// Invoke implements clrhost.EntryPoint. The payload stays caller-owned;
// the managed side must not retain the pointer past call return.
func (e *entryPoint) Invoke(payload []byte) (int32, error) {
	var ptr uintptr
	if len(payload) > 0 {
		ptr = uintptr(unsafe.Pointer(&payload[0]))
	}
	r1, _, _ := purego.SyscallN(e.fn, ptr, uintptr(int32(len(payload))))
	runtime.KeepAlive(payload)
	return int32(uint32(r1)), nil
}

// Raw returns the underlying function pointer.
func (e *entryPoint) Raw() uintptr { return e.fn }

// LoadFuncFromDelegate adapts a raw load-assembly-and-get-function-pointer
// delegate into a clrhost.LoadFunc producing entry points of the default
// shape. Loader failures are classified into assembly, type and method
// not-found errors.
func LoadFuncFromDelegate(delegate uintptr) clrhost.LoadFunc {
	return func(assemblyPath, typeName, methodName string) (clrhost.EntryPoint, error) {
		fn, err := loadRaw(delegate, assemblyPath, typeName, methodName, 0)
		if err != nil {
			return nil, err
		}
		return &entryPoint{fn: fn}, nil
	}
}

func loadRaw(delegate uintptr, assemblyPath, typeName, methodName string, delegateType uintptr) (uintptr, error) {
	asm := hostString(assemblyPath)
	typ := hostString(typeName)
	mth := hostString(methodName)

	var fn uintptr
	r1, _, _ := purego.SyscallN(delegate,
		hostStringPtr(asm),
		hostStringPtr(typ),
		hostStringPtr(mth),
		delegateType,
		0, // reserved
		uintptr(unsafe.Pointer(&fn)))
	runtime.KeepAlive(asm)
	runtime.KeepAlive(typ)
	runtime.KeepAlive(mth)

	if rc := uint32(r1); rc != statusSuccess {
		return 0, resolveError(assemblyPath, typeName, methodName, rc)
	}
	return fn, nil
}

// nativeTransport speaks the boundary ABI through three raw function
// pointers exported by the bridge assembly.
type nativeTransport struct {
	create  uintptr
	invoke  uintptr
	release uintptr
}

// BindTransport resolves the bridge assembly's three boundary exports
// through the load delegate and wraps them as a clrhost.Transport. The
// export methods must be unmanaged-callers-only with the byte-exact
// boundary signatures.
func BindTransport(delegate uintptr, assemblyPath, typeName string) (clrhost.Transport, error) {
	t := &nativeTransport{}
	for _, sym := range []struct {
		method string
		dst    *uintptr
	}{
		{"CreateInstance", &t.create},
		{"InvokeMethod", &t.invoke},
		{"ReleaseInstance", &t.release},
	} {
		fn, err := loadRaw(delegate, assemblyPath, typeName, sym.method, unmanagedCallersOnly)
		if err != nil {
			return nil, err
		}
		*sym.dst = fn
	}
	return t, nil
}

// CreateInstance implements clrhost.Transport.
func (t *nativeTransport) CreateInstance(assemblyName, typeName string, args []byte, argc int32) (int32, error) {
	asm := hostString(assemblyName)
	typ := hostString(typeName)

	r1, _, _ := purego.SyscallN(t.create,
		hostStringPtr(asm),
		hostStringPtr(typ),
		bytesPtr(args),
		uintptr(argc))
	runtime.KeepAlive(asm)
	runtime.KeepAlive(typ)
	runtime.KeepAlive(args)
	return int32(uint32(r1)), nil
}

// InvokeMethod implements clrhost.Transport.
func (t *nativeTransport) InvokeMethod(handle int32, methodName string, args []byte, argc int32) (int32, int32, error) {
	mth := hostString(methodName)
	var result int32

	r1, _, _ := purego.SyscallN(t.invoke,
		uintptr(handle),
		hostStringPtr(mth),
		bytesPtr(args),
		uintptr(argc),
		uintptr(unsafe.Pointer(&result)))
	runtime.KeepAlive(mth)
	runtime.KeepAlive(args)
	return int32(uint32(r1)), result, nil
}

// ReleaseInstance implements clrhost.Transport.
func (t *nativeTransport) ReleaseInstance(handle int32) (int32, error) {
	r1, _, _ := purego.SyscallN(t.release, uintptr(handle))
	return int32(uint32(r1)), nil
}

func bytesPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

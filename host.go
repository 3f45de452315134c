package clrhost

// Handle identifies one managed object instance known to the bridge.
// Handle 0 is reserved and always invalid. Handles are allocated
// monotonically and never reused while the referenced object is alive.
type Handle int32

// RuntimeHandle is the loader's opaque context handle for one initialized
// managed runtime.
type RuntimeHandle uintptr

// DelegateKind names a runtime capability requested from the loader.
// The values follow the hostfxr delegate type enumeration.
type DelegateKind int32

const (
	// DelegateLoadAssemblyAndGetFunctionPointer loads an assembly and
	// resolves a managed static method into a callable entry point.
	// Every loader implementation must provide it.
	DelegateLoadAssemblyAndGetFunctionPointer DelegateKind = 5

	// DelegateGetFunctionPointer resolves a method from an already
	// loaded assembly. Optional.
	DelegateGetFunctionPointer DelegateKind = 6

	// DelegateLoadAssembly loads an assembly without resolving a method.
	// Optional.
	DelegateLoadAssembly DelegateKind = 7
)

func (k DelegateKind) String() string {
	switch k {
	case DelegateLoadAssemblyAndGetFunctionPointer:
		return "load-assembly-and-get-function-pointer"
	case DelegateGetFunctionPointer:
		return "get-function-pointer"
	case DelegateLoadAssembly:
		return "load-assembly"
	default:
		return "unknown"
	}
}

// Loader is the contract of a runtime host library: the three required
// entry points of the loader, behind one interface so that the lifecycle
// layer works the same against a real host library, a WASM-backed host,
// or a test fake.
type Loader interface {
	// InitRuntime starts the managed runtime from a runtime
	// configuration file and returns its context handle.
	InitRuntime(configPath string) (RuntimeHandle, error)

	// GetDelegate returns the raw function pointer for a capability.
	GetDelegate(rt RuntimeHandle, kind DelegateKind) (uintptr, error)

	// CloseRuntime releases the runtime context.
	CloseRuntime(rt RuntimeHandle) error
}

// EntryPoint is one resolved managed entry point. The payload follows
// the default entry point shape of the hosting contract: a single
// caller-owned buffer plus its size, returning an int32 status.
type EntryPoint interface {
	Invoke(payload []byte) (int32, error)
}

// LoadFunc loads an assembly and resolves one static method into an
// entry point, keyed by the assembly-qualified naming convention:
// (assemblyPath, "Namespace.TypeName, AssemblyName", methodName).
type LoadFunc func(assemblyPath, typeName, methodName string) (EntryPoint, error)

// Boundary result codes shared by every bridge export.
const (
	// StatusError reports a failure. Diagnostic detail stays on the
	// bridge side; no managed exception crosses the boundary.
	StatusError int32 = -1
	// StatusOK reports success with no result value.
	StatusOK int32 = 0
	// StatusOKResult reports success with a result handle written to
	// the caller's result slot.
	StatusOKResult int32 = 1
)

// Transport is the native-side view of the bridge boundary. The three
// methods mirror the boundary call signatures byte for byte; protocol
// failures are reported through the returned status codes, while the
// error return carries transport-level faults only (for example a
// failed foreign call).
type Transport interface {
	// CreateInstance constructs a managed object and returns its
	// handle, or StatusError.
	CreateInstance(assemblyName, typeName string, args []byte, argc int32) (int32, error)

	// InvokeMethod invokes a method on the handle. On StatusOKResult
	// the result handle is returned alongside the status.
	InvokeMethod(handle int32, methodName string, args []byte, argc int32) (status int32, result int32, err error)

	// ReleaseInstance removes the handle, allowing the underlying
	// object to become collectible.
	ReleaseInstance(handle int32) (int32, error)
}

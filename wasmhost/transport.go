package wasmhost

import (
	"github.com/tetratelabs/wazero/api"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
)

// Guest boundary export names.
const (
	exportCreateInstance  = "create_instance"
	exportInvokeMethod    = "invoke_method"
	exportReleaseInstance = "release_instance"
)

// Transport speaks the object boundary against a guest module that
// exports create_instance, invoke_method and release_instance. String
// and argument buffers are copied into guest memory through the
// module's allocator; invoke_method packs its reply into one i64,
// status in the high 32 bits and the result handle in the low 32.
type Transport struct {
	runtime *Runtime
	module  *Module
	create  api.Function
	invoke  api.Function
	release api.Function
}

// BindTransport loads a guest module and resolves its boundary exports.
func (r *Runtime) BindTransport(rt clrhost.RuntimeHandle, wasmPath string) (*Transport, error) {
	m, err := r.LoadModule(rt, wasmPath)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		runtime: r,
		module:  m,
		create:  m.instance.ExportedFunction(exportCreateInstance),
		invoke:  m.instance.ExportedFunction(exportInvokeMethod),
		release: m.instance.ExportedFunction(exportReleaseInstance),
	}
	for _, exp := range []struct {
		name    string
		fn      api.Function
		params  int
		results int
	}{
		{exportCreateInstance, t.create, 7, 1},
		{exportInvokeMethod, t.invoke, 6, 1},
		{exportReleaseInstance, t.release, 1, 1},
	} {
		if exp.fn == nil {
			return nil, errors.NotFound(errors.PhaseResolve, "export", exp.name)
		}
		if err := checkSignature(exp.fn, exp.name, exp.params, exp.results); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Transport) guestString(s string) (ptr, length uint32, free func(), err error) {
	if s == "" {
		return 0, 0, func() {}, nil
	}
	b := []byte(s)
	p, err := t.module.alloc(t.runtime, b)
	if err != nil {
		return 0, 0, nil, err
	}
	return p, uint32(len(b)), func() { t.module.free(t.runtime, p) }, nil
}

func (t *Transport) guestBytes(b []byte) (ptr, length uint32, free func(), err error) {
	if len(b) == 0 {
		return 0, 0, func() {}, nil
	}
	p, err := t.module.alloc(t.runtime, b)
	if err != nil {
		return 0, 0, nil, err
	}
	return p, uint32(len(b)), func() { t.module.free(t.runtime, p) }, nil
}

// CreateInstance implements the boundary create signature over the
// guest export create_instance(asmPtr, asmLen, typePtr, typeLen,
// argsPtr, argsLen, argc) -> i32.
func (t *Transport) CreateInstance(assemblyName, typeName string, args []byte, argc int32) (int32, error) {
	asmPtr, asmLen, freeAsm, err := t.guestString(assemblyName)
	if err != nil {
		return clrhost.StatusError, err
	}
	defer freeAsm()
	typPtr, typLen, freeTyp, err := t.guestString(typeName)
	if err != nil {
		return clrhost.StatusError, err
	}
	defer freeTyp()
	argPtr, argLen, freeArg, err := t.guestBytes(args)
	if err != nil {
		return clrhost.StatusError, err
	}
	defer freeArg()

	res, err := t.create.Call(t.runtime.ctx,
		uint64(asmPtr), uint64(asmLen),
		uint64(typPtr), uint64(typLen),
		uint64(argPtr), uint64(argLen), uint64(uint32(argc)))
	if err != nil {
		return clrhost.StatusError, errors.Wrap(errors.PhaseBridge, errors.KindConstructor, err, "guest create_instance")
	}
	return int32(res[0]), nil
}

// InvokeMethod implements the boundary invoke signature over the guest
// export invoke_method(handle, namePtr, nameLen, argsPtr, argsLen,
// argc) -> i64 packed reply.
func (t *Transport) InvokeMethod(handle int32, methodName string, args []byte, argc int32) (int32, int32, error) {
	namePtr, nameLen, freeName, err := t.guestString(methodName)
	if err != nil {
		return clrhost.StatusError, 0, err
	}
	defer freeName()
	argPtr, argLen, freeArg, err := t.guestBytes(args)
	if err != nil {
		return clrhost.StatusError, 0, err
	}
	defer freeArg()

	res, err := t.invoke.Call(t.runtime.ctx,
		uint64(uint32(handle)),
		uint64(namePtr), uint64(nameLen),
		uint64(argPtr), uint64(argLen), uint64(uint32(argc)))
	if err != nil {
		return clrhost.StatusError, 0, errors.Wrap(errors.PhaseInvoke, errors.KindInvocation, err, "guest invoke_method")
	}
	packed := res[0]
	return int32(packed >> 32), int32(packed), nil
}

// ReleaseInstance implements the boundary release signature over the
// guest export release_instance(handle) -> i32.
func (t *Transport) ReleaseInstance(handle int32) (int32, error) {
	res, err := t.release.Call(t.runtime.ctx, uint64(uint32(handle)))
	if err != nil {
		return clrhost.StatusError, errors.Wrap(errors.PhaseBridge, errors.KindUnknownHandle, err, "guest release_instance")
	}
	return int32(res[0]), nil
}

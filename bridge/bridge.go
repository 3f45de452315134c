package bridge

import (
	"fmt"

	"go.uber.org/zap"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/codec"
	"github.com/hostbridge/clr-host/errors"
)

// Bridge is the managed-side endpoint of the boundary: it owns the
// handle table and the type registry, and exposes the three boundary
// operations both as a typed Go API and in the byte-exact wire shape.
//
// The Bridge implements clrhost.Transport directly, so a native-side
// client can run against it in-process without a foreign runtime.
type Bridge struct {
	table *Table
	reg   *Registry
}

// New creates a bridge with an empty registry and handle table.
func New() *Bridge {
	return NewWithRegistry(NewRegistry())
}

// NewWithRegistry creates a bridge around an existing type registry.
func NewWithRegistry(reg *Registry) *Bridge {
	return &Bridge{
		table: NewTable(),
		reg:   reg,
	}
}

func (b *Bridge) Table() *Table       { return b.table }
func (b *Bridge) Registry() *Registry { return b.reg }

// object is a live instance bound to its dispatch table.
type object struct {
	desc  *TypeDescriptor
	value any
}

// boxed wraps a non-void method result registered under its own handle.
type boxed struct {
	value codec.Value
}

func (o *object) Dispose() {
	if d, ok := o.value.(Disposer); ok {
		d.Dispose()
	}
}

// Create resolves the type, constructs an instance with the given
// arguments (default-constructs on an empty list) and registers it
// under a fresh handle.
func (b *Bridge) Create(assembly, typeName string, args []codec.Value) (handle clrhost.Handle, err error) {
	desc, ok := b.reg.Lookup(assembly, typeName)
	if !ok {
		return 0, errors.NotFound(errors.PhaseBridge, "type", typeKey(assembly, typeName))
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Constructor(desc.Name, panicError(r))
		}
	}()

	value, err := desc.New(args)
	if err != nil {
		return 0, errors.Constructor(desc.Name, err)
	}
	return b.table.Insert(&object{desc: desc, value: value})
}

// Invoke looks up the handle, dispatches the named method and, for a
// non-void result, registers the result under a new handle. The bool
// reports whether a result handle was produced.
func (b *Bridge) Invoke(handle clrhost.Handle, method string, args []codec.Value) (result clrhost.Handle, hasResult bool, err error) {
	v, ok := b.table.Get(handle)
	if !ok {
		return 0, false, errors.UnknownHandle(int32(handle))
	}
	obj, ok := v.(*object)
	if !ok {
		return 0, false, errors.NotFound(errors.PhaseInvoke, "method", method)
	}
	fn, ok := obj.desc.Methods[method]
	if !ok {
		return 0, false, errors.NotFound(errors.PhaseInvoke, "method", method)
	}

	defer func() {
		if r := recover(); r != nil {
			result, hasResult = 0, false
			err = errors.Invocation(method, panicError(r))
		}
	}()

	ret, hasRet, err := fn(obj.value, args)
	if err != nil {
		return 0, false, errors.Invocation(method, err)
	}
	if !hasRet {
		return 0, false, nil
	}

	rh, err := b.table.Insert(&boxed{value: ret})
	if err != nil {
		return 0, false, err
	}
	return rh, true, nil
}

// Release removes the handle, allowing the underlying object to become
// collectible. Releasing the same handle twice fails with an
// unknown-handle error rather than touching freed state.
func (b *Bridge) Release(handle clrhost.Handle) error {
	if _, ok := b.table.Remove(handle); !ok {
		return errors.UnknownHandle(int32(handle))
	}
	return nil
}

// ValueOf dereferences a handle holding a boxed method result.
func (b *Bridge) ValueOf(handle clrhost.Handle) (codec.Value, bool) {
	v, ok := b.table.Get(handle)
	if !ok {
		return nil, false
	}
	if bx, ok := v.(*boxed); ok {
		return bx.value, true
	}
	return nil, false
}

// Close releases every live handle and shuts the table down.
func (b *Bridge) Close() error {
	return b.table.Close()
}

// Boundary operations in wire shape. Failures are logged with full
// detail on this side and reported to the caller as the uniform status
// codes only; no managed error detail crosses the boundary.

// CreateInstance implements clrhost.Transport.
func (b *Bridge) CreateInstance(assemblyName, typeName string, args []byte, argc int32) (int32, error) {
	values, err := codec.Deserialize(args, int(argc))
	if err != nil {
		logFailure("create_instance", typeName, err)
		return clrhost.StatusError, nil
	}
	h, err := b.Create(assemblyName, typeName, values)
	if err != nil {
		logFailure("create_instance", typeName, err)
		return clrhost.StatusError, nil
	}
	return int32(h), nil
}

// InvokeMethod implements clrhost.Transport.
func (b *Bridge) InvokeMethod(handle int32, methodName string, args []byte, argc int32) (int32, int32, error) {
	values, err := codec.Deserialize(args, int(argc))
	if err != nil {
		logFailure("invoke_method", methodName, err)
		return clrhost.StatusError, 0, nil
	}
	rh, hasResult, err := b.Invoke(clrhost.Handle(handle), methodName, values)
	if err != nil {
		logFailure("invoke_method", methodName, err)
		return clrhost.StatusError, 0, nil
	}
	if !hasResult {
		return clrhost.StatusOK, 0, nil
	}
	return clrhost.StatusOKResult, int32(rh), nil
}

// ReleaseInstance implements clrhost.Transport.
func (b *Bridge) ReleaseInstance(handle int32) (int32, error) {
	if err := b.Release(clrhost.Handle(handle)); err != nil {
		logFailure("release_instance", "", err)
		return clrhost.StatusError, nil
	}
	return clrhost.StatusOK, nil
}

func logFailure(op, subject string, err error) {
	Logger().Debug("bridge operation failed",
		zap.String("op", op),
		zap.String("subject", subject),
		zap.Error(err))
}

type panicErr struct {
	v any
}

func (p panicErr) Error() string {
	return fmt.Sprintf("panic: %v", p.v)
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return panicErr{v: v}
}

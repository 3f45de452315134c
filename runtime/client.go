package runtime

import (
	"go.uber.org/zap"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/codec"
	"github.com/hostbridge/clr-host/errors"
	"github.com/hostbridge/clr-host/hostlib"
)

// Client is the native-side proxy over the bridge boundary. It encodes
// arguments, speaks the byte-exact boundary signatures through a
// Transport, and decodes status codes into typed errors. The boundary
// deliberately reports failures as a uniform code, so errors seen here
// carry no managed-side detail; that detail is logged on the bridge
// side.
type Client struct {
	transport clrhost.Transport
}

// NewClient creates a client over a transport. The transport may be a
// bridge.Bridge (in-process), a hostlib native transport, or a wasmhost
// guest transport.
func NewClient(t clrhost.Transport) *Client {
	return &Client{transport: t}
}

// BindClient resolves a bridge assembly's boundary exports through the
// context's load capability and returns a client over them.
func BindClient(ctx *Context, assemblyPath, typeName string) (*Client, error) {
	d, err := ctx.GetDelegate(clrhost.DelegateLoadAssemblyAndGetFunctionPointer)
	if err != nil {
		return nil, err
	}
	t, err := hostlib.BindTransport(d, assemblyPath, typeName)
	if err != nil {
		return nil, err
	}
	return NewClient(t), nil
}

// CreateInstance constructs a managed object and returns its handle.
func (c *Client) CreateInstance(assembly, typeName string, args ...codec.Value) (clrhost.Handle, error) {
	buf, err := codec.Serialize(args)
	if err != nil {
		return 0, err
	}
	rc, err := c.transport.CreateInstance(assembly, typeName, buf, int32(len(args)))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseBridge, errors.KindInvocation, err, "create instance transport fault")
	}
	if rc == clrhost.StatusError {
		return 0, errors.Constructor(typeName, nil)
	}
	return clrhost.Handle(rc), nil
}

// Invoke calls a method on a handle. For a non-void method the result
// handle is returned with true; releasing the result handle is the
// caller's responsibility.
func (c *Client) Invoke(h clrhost.Handle, method string, args ...codec.Value) (clrhost.Handle, bool, error) {
	buf, err := codec.Serialize(args)
	if err != nil {
		return 0, false, err
	}
	status, result, err := c.transport.InvokeMethod(int32(h), method, buf, int32(len(args)))
	if err != nil {
		return 0, false, errors.Wrap(errors.PhaseInvoke, errors.KindInvocation, err, "invoke transport fault")
	}
	switch status {
	case clrhost.StatusOK:
		return 0, false, nil
	case clrhost.StatusOKResult:
		return clrhost.Handle(result), true, nil
	default:
		return 0, false, errors.Invocation(method, nil)
	}
}

// Release removes a handle. Releasing an unknown or already-released
// handle fails with an unknown-handle error.
func (c *Client) Release(h clrhost.Handle) error {
	rc, err := c.transport.ReleaseInstance(int32(h))
	if err != nil {
		return errors.Wrap(errors.PhaseBridge, errors.KindUnknownHandle, err, "release transport fault")
	}
	if rc != clrhost.StatusOK {
		return errors.UnknownHandle(int32(h))
	}
	return nil
}

// WithInstance creates an instance, runs fn with its handle, and
// releases the handle on every exit path, including a panic inside fn.
func (c *Client) WithInstance(assembly, typeName string, args []codec.Value, fn func(clrhost.Handle) error) error {
	h, err := c.CreateInstance(assembly, typeName, args...)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := c.Release(h); rerr != nil {
			Logger().Warn("release failed",
				zap.Int32("handle", int32(h)),
				zap.Error(rerr))
		}
	}()
	return fn(h)
}

package runtime

import (
	"testing"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/bridge"
	"github.com/hostbridge/clr-host/codec"
	"github.com/hostbridge/clr-host/errors"
)

// Counter is the managed-side test type for the client: a seedable
// counter with a binary addition method.
type Counter struct {
	value int32
}

func (c *Counter) Construct(args []codec.Value) error {
	switch len(args) {
	case 0:
		return nil
	case 1:
		v, ok := args[0].(int32)
		if !ok {
			return errors.InvalidInput(errors.PhaseBridge, "seed must be int32")
		}
		c.value = v
		return nil
	default:
		return errors.InvalidInput(errors.PhaseBridge, "Counter takes at most one argument")
	}
}

func (c *Counter) Add(x, y int32) int32 { return x + y }
func (c *Counter) Value() int32         { return c.value }
func (c *Counter) Bump()                { c.value++ }

func newLoopback(t *testing.T) (*Client, *bridge.Bridge) {
	t.Helper()
	b := bridge.New()
	if _, err := b.Registry().RegisterStruct("CounterLib", &Counter{}); err != nil {
		t.Fatalf("RegisterStruct: %v", err)
	}
	return NewClient(b), b
}

func TestClientArithmeticScenario(t *testing.T) {
	c, b := newLoopback(t)

	h, err := c.CreateInstance("CounterLib", "Counter")
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	rh, hasResult, err := c.Invoke(h, "Add", int32(10), int32(32))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !hasResult {
		t.Fatal("expected a result handle")
	}

	v, ok := b.ValueOf(rh)
	if !ok {
		t.Fatal("result handle does not dereference")
	}
	if got, ok := v.(int32); !ok || got != 42 {
		t.Fatalf("result = %v, want int32(42)", v)
	}

	if err := c.Release(rh); err != nil {
		t.Fatalf("Release(result): %v", err)
	}
	if err := c.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestClientConstructorArgs(t *testing.T) {
	c, b := newLoopback(t)

	h, err := c.CreateInstance("CounterLib", "Counter", int32(7))
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	defer c.Release(h)

	rh, hasResult, err := c.Invoke(h, "Value")
	if err != nil || !hasResult {
		t.Fatalf("Invoke(Value) = %v, hasResult %v", err, hasResult)
	}
	if v, _ := b.ValueOf(rh); v != int32(7) {
		t.Fatalf("Value() = %v, want 7", v)
	}
}

func TestClientVoidMethod(t *testing.T) {
	c, _ := newLoopback(t)

	h, err := c.CreateInstance("CounterLib", "Counter")
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	defer c.Release(h)

	rh, hasResult, err := c.Invoke(h, "Bump")
	if err != nil {
		t.Fatalf("Invoke(Bump): %v", err)
	}
	if hasResult || rh != 0 {
		t.Fatalf("void method returned a result: %v %v", rh, hasResult)
	}
}

func TestClientUnknownTypeUniformError(t *testing.T) {
	c, _ := newLoopback(t)

	_, err := c.CreateInstance("CounterLib", "NoSuchType")
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindConstructor {
		t.Fatalf("err = %v, want constructor_failure", err)
	}
	// The boundary collapses all failures to one code; no managed
	// detail leaks into the client-side error.
	if e.Cause != nil {
		t.Errorf("client error carries managed detail: %v", e.Cause)
	}
}

func TestClientUnknownMethodUniformError(t *testing.T) {
	c, _ := newLoopback(t)

	h, err := c.CreateInstance("CounterLib", "Counter")
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	defer c.Release(h)

	_, _, err = c.Invoke(h, "NoSuchMethod")
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindInvocation {
		t.Fatalf("err = %v, want invocation_failure", err)
	}
}

func TestClientReleaseUnknownHandle(t *testing.T) {
	c, _ := newLoopback(t)

	err := c.Release(clrhost.Handle(999))
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindUnknownHandle {
		t.Fatalf("err = %v, want unknown_handle", err)
	}
}

func TestClientWithInstanceReleases(t *testing.T) {
	c, b := newLoopback(t)
	before := b.Table().Len()

	var seen clrhost.Handle
	err := c.WithInstance("CounterLib", "Counter", []codec.Value{int32(3)}, func(h clrhost.Handle) error {
		seen = h
		_, _, err := c.Invoke(h, "Bump")
		return err
	})
	if err != nil {
		t.Fatalf("WithInstance: %v", err)
	}
	if seen == 0 {
		t.Fatal("callback never ran")
	}
	if got := b.Table().Len(); got != before {
		t.Fatalf("table size changed: %d -> %d", before, got)
	}
}

func TestClientWithInstanceReleasesOnError(t *testing.T) {
	c, b := newLoopback(t)
	before := b.Table().Len()

	want := errors.InvalidInput(errors.PhaseBridge, "synthetic")
	err := c.WithInstance("CounterLib", "Counter", nil, func(h clrhost.Handle) error {
		return want
	})
	if err != want {
		t.Fatalf("err = %v, want the callback error", err)
	}
	if got := b.Table().Len(); got != before {
		t.Fatalf("table size changed: %d -> %d", before, got)
	}
}

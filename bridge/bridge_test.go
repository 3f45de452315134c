package bridge

import (
	"testing"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/codec"
	"github.com/hostbridge/clr-host/errors"
)

// Accumulator is the arithmetic test type: two int32 seeds plus a
// binary addition method.
type Accumulator struct {
	a, b int32
}

func (a *Accumulator) Construct(args []codec.Value) error {
	if len(args) != 2 {
		return errors.InvalidInput(errors.PhaseBridge, "Accumulator takes two arguments")
	}
	var ok bool
	if a.a, ok = args[0].(int32); !ok {
		return errors.InvalidInput(errors.PhaseBridge, "first argument must be int32")
	}
	if a.b, ok = args[1].(int32); !ok {
		return errors.InvalidInput(errors.PhaseBridge, "second argument must be int32")
	}
	return nil
}

func (a *Accumulator) Add(x, y int32) int32 { return x + y }
func (a *Accumulator) Sum() int32           { return a.a + a.b }
func (a *Accumulator) Reset()               { a.a, a.b = 0, 0 }
func (a *Accumulator) Boom()                { panic("managed exception") }

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	b := New()
	if _, err := b.Registry().RegisterStruct("MathLib", &Accumulator{}); err != nil {
		t.Fatalf("RegisterStruct: %v", err)
	}
	return b
}

func TestBridge_CreateRelease_TableUnchanged(t *testing.T) {
	b := newTestBridge(t)
	before := b.Table().Len()

	h, err := b.Create("MathLib", "Accumulator", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := b.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if got := b.Table().Len(); got != before {
		t.Fatalf("table size changed: %d -> %d", before, got)
	}
}

func TestBridge_ArithmeticScenario(t *testing.T) {
	b := newTestBridge(t)

	h, err := b.Create("MathLib", "Accumulator", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rh, hasResult, err := b.Invoke(h, "Add", []codec.Value{int32(10), int32(32)})
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
	if v != int32(42) {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestBridge_ConstructorArguments(t *testing.T) {
	b := newTestBridge(t)

	h, err := b.Create("MathLib", "Accumulator", []codec.Value{int32(40), int32(2)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rh, _, err := b.Invoke(h, "Sum", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v, _ := b.ValueOf(rh); v != int32(42) {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestBridge_QualifiedTypeName(t *testing.T) {
	b := newTestBridge(t)

	if _, err := b.Create("", "Accumulator, MathLib", nil); err != nil {
		t.Fatalf("Create with qualified name: %v", err)
	}
	// The cache serves the repeat lookup.
	if _, err := b.Create("", "Accumulator, MathLib", nil); err != nil {
		t.Fatalf("second Create with qualified name: %v", err)
	}
}

func TestBridge_VoidMethod(t *testing.T) {
	b := newTestBridge(t)
	h, _ := b.Create("MathLib", "Accumulator", nil)

	rh, hasResult, err := b.Invoke(h, "Reset", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if hasResult || rh != 0 {
		t.Fatal("void method must not produce a result handle")
	}
}

func TestBridge_UnknownType(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.Create("MathLib", "Missing", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestBridge_UnknownMethod(t *testing.T) {
	b := newTestBridge(t)
	h, _ := b.Create("MathLib", "Accumulator", nil)

	_, _, err := b.Invoke(h, "Divide", nil)
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestBridge_NeverIssuedHandle(t *testing.T) {
	b := newTestBridge(t)

	_, _, err := b.Invoke(999, "Add", []codec.Value{int32(1), int32(2)})
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindUnknownHandle {
		t.Fatalf("expected unknown_handle, got %v", err)
	}
}

func TestBridge_ReleasedHandle(t *testing.T) {
	b := newTestBridge(t)
	h, _ := b.Create("MathLib", "Accumulator", nil)
	if err := b.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}

	_, _, err := b.Invoke(h, "Sum", nil)
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindUnknownHandle {
		t.Fatalf("expected unknown_handle after release, got %v", err)
	}

	// Second release also fails, it does not corrupt anything.
	err = b.Release(h)
	e, ok = err.(*errors.Error)
	if !ok || e.Kind != errors.KindUnknownHandle {
		t.Fatalf("expected unknown_handle on double release, got %v", err)
	}
}

func TestBridge_PanicBecomesInvocationFailure(t *testing.T) {
	b := newTestBridge(t)
	h, _ := b.Create("MathLib", "Accumulator", nil)

	_, _, err := b.Invoke(h, "Boom", nil)
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindInvocation {
		t.Fatalf("expected invocation_failure, got %v", err)
	}

	// The bridge survives the panic.
	if _, _, err := b.Invoke(h, "Sum", nil); err != nil {
		t.Fatalf("bridge unusable after panic: %v", err)
	}
}

func TestBridge_WireShape(t *testing.T) {
	b := newTestBridge(t)

	args, err := codec.Serialize([]codec.Value{int32(10), int32(32)})
	if err != nil {
		t.Fatal(err)
	}

	h, err := b.CreateInstance("MathLib", "Accumulator", nil, 0)
	if err != nil {
		t.Fatalf("CreateInstance transport fault: %v", err)
	}
	if h == clrhost.StatusError {
		t.Fatal("CreateInstance failed")
	}

	status, result, err := b.InvokeMethod(h, "Add", args, 2)
	if err != nil {
		t.Fatalf("InvokeMethod transport fault: %v", err)
	}
	if status != clrhost.StatusOKResult {
		t.Fatalf("expected status 1, got %d", status)
	}
	if v, _ := b.ValueOf(clrhost.Handle(result)); v != int32(42) {
		t.Fatalf("expected 42, got %v", v)
	}

	if status, _ := b.ReleaseInstance(h); status != clrhost.StatusOK {
		t.Fatalf("expected release status 0, got %d", status)
	}
	if status, _ := b.ReleaseInstance(h); status != clrhost.StatusError {
		t.Fatalf("expected second release status -1, got %d", status)
	}
}

func TestBridge_WireShape_ErrorsAreUniform(t *testing.T) {
	b := newTestBridge(t)

	// Unknown type, malformed buffer, unknown handle: all surface as -1.
	if h, _ := b.CreateInstance("MathLib", "Missing", nil, 0); h != clrhost.StatusError {
		t.Fatalf("expected -1 for unknown type, got %d", h)
	}
	if h, _ := b.CreateInstance("MathLib", "Accumulator", []byte{0xfe}, 1); h != clrhost.StatusError {
		t.Fatalf("expected -1 for malformed buffer, got %d", h)
	}
	if status, _, _ := b.InvokeMethod(999, "Add", nil, 0); status != clrhost.StatusError {
		t.Fatalf("expected -1 for unknown handle, got %d", status)
	}
}

package wasmhost

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
)

// emptyModule is the smallest valid wasm binary: magic plus version,
// no sections, no exports.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// buildVoidExportModule assembles a module whose exports all share one
// (i32, i32) -> () function, a shape the boundary never accepts. Names
// must stay short enough for single-byte LEB128 lengths.
func buildVoidExportModule(names ...string) []byte {
	mod := append([]byte{}, emptyModule...)
	// type section: one functype (i32, i32) -> ()
	mod = append(mod, 0x01, 0x06, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x00)
	// function section: one function of type 0
	mod = append(mod, 0x03, 0x02, 0x01, 0x00)
	// export section: every name bound to function 0
	var exp []byte
	exp = append(exp, byte(len(names)))
	for _, n := range names {
		exp = append(exp, byte(len(n)))
		exp = append(exp, n...)
		exp = append(exp, 0x00, 0x00)
	}
	mod = append(mod, 0x07, byte(len(exp)))
	mod = append(mod, exp...)
	// code section: empty body
	mod = append(mod, 0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b)
	return mod
}

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	r, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.runtimeconfig.json")
	if err := os.WriteFile(path, []byte(`{"runtimeOptions":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeModule(t *testing.T, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guest.wasm")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitRuntimeMissingConfig(t *testing.T) {
	r := newRuntime(t)

	_, err := r.InitRuntime(filepath.Join(t.TempDir(), "missing.json"))
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindConfigInvalid {
		t.Fatalf("err = %v, want config_invalid", err)
	}
}

func TestInitRuntimeDirectoryConfig(t *testing.T) {
	r := newRuntime(t)

	_, err := r.InitRuntime(t.TempDir())
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindConfigInvalid {
		t.Fatalf("err = %v, want config_invalid", err)
	}
}

func TestInitRuntimeAndDelegates(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	if rt == 0 {
		t.Fatal("zero runtime handle")
	}

	a, err := r.GetDelegate(rt, clrhost.DelegateLoadAssemblyAndGetFunctionPointer)
	if err != nil {
		t.Fatalf("GetDelegate: %v", err)
	}
	b, err := r.GetDelegate(rt, clrhost.DelegateGetFunctionPointer)
	if err != nil {
		t.Fatalf("GetDelegate: %v", err)
	}
	if a == 0 || b == 0 || a == b {
		t.Errorf("tokens not distinct and nonzero: %d %d", a, b)
	}
}

func TestGetDelegateUnknownContext(t *testing.T) {
	r := newRuntime(t)

	_, err := r.GetDelegate(clrhost.RuntimeHandle(42), clrhost.DelegateLoadAssembly)
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindInvalidState {
		t.Fatalf("err = %v, want invalid_state", err)
	}
}

func TestGetDelegateUnsupportedKind(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	_, err = r.GetDelegate(rt, clrhost.DelegateKind(99))
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindInvalidInput {
		t.Fatalf("err = %v, want invalid_input", err)
	}
}

func TestCloseRuntimeInvalidatesContext(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	if err := r.CloseRuntime(rt); err != nil {
		t.Fatalf("CloseRuntime: %v", err)
	}

	if err := r.CloseRuntime(rt); err == nil {
		t.Error("second CloseRuntime succeeded")
	}
	_, err = r.GetDelegate(rt, clrhost.DelegateLoadAssembly)
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindInvalidState {
		t.Fatalf("err = %v, want invalid_state", err)
	}
}

func TestRuntimeCloseIdempotent(t *testing.T) {
	r, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := r.InitRuntime(writeConfig(t)); err == nil {
		t.Error("InitRuntime succeeded on a closed runtime")
	}
}

func TestLoadModuleMissingFile(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	_, err = r.LoadModule(rt, filepath.Join(t.TempDir(), "missing.wasm"))
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindNotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestLoadModuleCachedPerPath(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	path := writeModule(t, emptyModule)

	first, err := r.LoadModule(rt, path)
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	second, err := r.LoadModule(rt, path)
	if err != nil {
		t.Fatalf("second LoadModule: %v", err)
	}
	if first != second {
		t.Error("same path loaded twice")
	}
}

func TestLoadFuncMissingExport(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	load := r.LoadFunc(rt)

	_, err = load(writeModule(t, emptyModule), "Greeter", "Hello")
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindNotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestLoadFuncRejectsVoidExport(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	load := r.LoadFunc(rt)

	_, err = load(writeModule(t, buildVoidExportModule("Ping")), "", "Ping")
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindInvalidInput {
		t.Fatalf("err = %v, want invalid_input", err)
	}
}

func TestBindTransportRejectsWrongSignature(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	path := writeModule(t, buildVoidExportModule(
		"create_instance", "invoke_method", "release_instance"))

	_, err = r.BindTransport(rt, path)
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindInvalidInput {
		t.Fatalf("err = %v, want invalid_input", err)
	}
}

func TestBindTransportMissingExports(t *testing.T) {
	r := newRuntime(t)

	rt, err := r.InitRuntime(writeConfig(t))
	if err != nil {
		t.Fatalf("InitRuntime: %v", err)
	}
	_, err = r.BindTransport(rt, writeModule(t, emptyModule))
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindNotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

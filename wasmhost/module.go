package wasmhost

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
)

// Guest allocator export names, in probe order. cabi_realloc is the
// canonical ABI shape (old ptr, old size, align, new size); malloc and
// alloc take a single size.
const (
	cabiRealloc = "cabi_realloc"
	simpleAlloc = "malloc"
	legacyAlloc = "alloc"
	simpleFree  = "free"
)

// Module is one loaded guest assembly: a compiled and instantiated
// .wasm file with its memory and allocator cached.
type Module struct {
	path     string
	instance api.Module
	memory   api.Memory

	mu        sync.Mutex
	allocFn   api.Function
	freeFn    api.Function
	cabiShape bool
}

// LoadModule compiles and instantiates the .wasm file at path, reusing
// a prior load of the same path. The runtime context must be live.
func (r *Runtime) LoadModule(rt clrhost.RuntimeHandle, path string) (*Module, error) {
	if _, err := r.liveContext(rt); err != nil {
		return nil, err
	}

	clean := filepath.Clean(path)
	r.mu.Lock()
	if m, ok := r.modules[clean]; ok {
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	wasmBytes, err := os.ReadFile(clean)
	if err != nil {
		return nil, errors.NotFound(errors.PhaseLoad, "assembly", clean)
	}

	compiled, err := r.runtime.CompileModule(r.ctx, wasmBytes)
	if err != nil {
		return nil, errors.LibraryLoad("compile "+clean, err)
	}

	// Anonymous name so the same file can back several runtimes.
	instance, err := r.runtime.InstantiateModule(r.ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.LibraryLoad("instantiate "+clean, err)
	}

	m := &Module{
		path:     clean,
		instance: instance,
		memory:   instance.Memory(),
	}
	if fn := instance.ExportedFunction(cabiRealloc); fn != nil {
		m.allocFn, m.cabiShape = fn, true
	} else if fn := instance.ExportedFunction(simpleAlloc); fn != nil {
		m.allocFn = fn
	} else if fn := instance.ExportedFunction(legacyAlloc); fn != nil {
		m.allocFn = fn
	}
	m.freeFn = instance.ExportedFunction(simpleFree)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		instance.Close(r.ctx)
		return nil, errors.InvalidState(errors.PhaseLoad, "runtime is closed")
	}
	if prior, ok := r.modules[clean]; ok {
		// Lost a concurrent load of the same path.
		instance.Close(r.ctx)
		return prior, nil
	}
	r.modules[clean] = m
	return m, nil
}

// Exports returns the module's exported function names, sorted.
func (m *Module) Exports() []string {
	defs := m.instance.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// alloc copies data into guest memory and returns its offset. The
// caller frees through free when the guest exports a free function.
func (m *Module) alloc(r *Runtime, data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if m.allocFn == nil || m.memory == nil {
		return 0, errors.InvalidInput(errors.PhaseInvoke, "module exports no allocator")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var res []uint64
	var err error
	if m.cabiShape {
		res, err = m.allocFn.Call(r.ctx, 0, 0, 1, uint64(len(data)))
	} else {
		res, err = m.allocFn.Call(r.ctx, uint64(len(data)))
	}
	if err != nil {
		return 0, errors.Wrap(errors.PhaseInvoke, errors.KindInvocation, err, "guest alloc")
	}
	if len(res) == 0 {
		return 0, errors.InvalidInput(errors.PhaseInvoke, "guest allocator returns no value")
	}
	ptr := uint32(res[0])
	if !m.memory.Write(ptr, data) {
		return 0, errors.InvalidInput(errors.PhaseInvoke, "guest alloc returned out-of-range pointer")
	}
	return ptr, nil
}

func (m *Module) free(r *Runtime, ptr uint32) {
	if m.freeFn == nil || ptr == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freeFn.Call(r.ctx, uint64(ptr))
}

// checkSignature rejects an export whose arity differs from the
// boundary contract. Calling a mismatched export would make wazero
// return the wrong number of results instead of failing typed.
func checkSignature(fn api.Function, name string, params, results int) error {
	def := fn.Definition()
	if len(def.ParamTypes()) != params || len(def.ResultTypes()) != results {
		return errors.InvalidInput(errors.PhaseResolve, "export "+name+" has the wrong signature")
	}
	return nil
}

// entryPoint adapts one guest export of shape (ptr, len) -> i32.
type entryPoint struct {
	runtime *Runtime
	module  *Module
	fn      api.Function
}

func (e *entryPoint) Invoke(payload []byte) (int32, error) {
	ptr, err := e.module.alloc(e.runtime, payload)
	if err != nil {
		return clrhost.StatusError, err
	}
	defer e.module.free(e.runtime, ptr)

	res, err := e.fn.Call(e.runtime.ctx, uint64(ptr), uint64(len(payload)))
	if err != nil {
		return clrhost.StatusError, errors.Wrap(errors.PhaseInvoke, errors.KindInvocation, err, "guest call")
	}
	return int32(res[0]), nil
}

// LoadFunc returns the load capability for one runtime context. The
// assembly path names a .wasm file; the method name selects a guest
// export, probed first as typeName_methodName, then bare. The export
// must take a pointer and a length and return one i32 status.
func (r *Runtime) LoadFunc(rt clrhost.RuntimeHandle) clrhost.LoadFunc {
	return func(assemblyPath, typeName, methodName string) (clrhost.EntryPoint, error) {
		m, err := r.LoadModule(rt, assemblyPath)
		if err != nil {
			return nil, err
		}

		fn := m.instance.ExportedFunction(typeName + "_" + methodName)
		if fn == nil {
			fn = m.instance.ExportedFunction(methodName)
		}
		if fn == nil {
			return nil, errors.NotFound(errors.PhaseResolve, "method", methodName)
		}
		if err := checkSignature(fn, methodName, 2, 1); err != nil {
			return nil, err
		}
		return &entryPoint{runtime: r, module: m, fn: fn}, nil
	}
}

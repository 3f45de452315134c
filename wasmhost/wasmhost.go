package wasmhost

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
)

// Config holds configuration for runtime creation.
type Config struct {
	// MemoryLimitPages caps guest memory per instance in 64KB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// DisableWASI skips the wasi_snapshot_preview1 singleton. Modules
	// built against WASI will fail to instantiate.
	DisableWASI bool
}

// Runtime is a wazero-backed implementation of the host loader
// contract. Guest modules play the managed side: assemblies are .wasm
// files, entry points are guest exports. It lets the whole native-side
// stack run against a real foreign runtime without cgo.
type Runtime struct {
	ctx     context.Context
	runtime wazero.Runtime

	mu       sync.Mutex
	contexts map[clrhost.RuntimeHandle]*guestContext
	modules  map[string]*Module
	next     clrhost.RuntimeHandle
	closed   bool
}

type guestContext struct {
	configPath string
	delegates  map[uintptr]clrhost.DelegateKind
	nextToken  uintptr
}

// New creates a runtime with default configuration.
func New(ctx context.Context) (*Runtime, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a runtime with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Runtime, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	if cfg == nil || !cfg.DisableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			r.Close(ctx)
			return nil, errors.LibraryLoad("instantiate WASI", err)
		}
	}

	return &Runtime{
		ctx:      ctx,
		runtime:  r,
		contexts: make(map[clrhost.RuntimeHandle]*guestContext),
		modules:  make(map[string]*Module),
	}, nil
}

// InitRuntime validates the configuration file and opens a guest
// runtime context. The configuration content is opaque here; only
// existence and readability are checked, matching the native loader.
func (r *Runtime) InitRuntime(configPath string) (clrhost.RuntimeHandle, error) {
	clean := filepath.Clean(configPath)
	if fi, err := os.Stat(clean); err != nil {
		return 0, errors.ConfigInvalid(clean, err)
	} else if fi.IsDir() {
		return 0, errors.ConfigInvalid(clean, errors.InvalidInput(errors.PhaseInit, "path is a directory"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, errors.InvalidState(errors.PhaseInit, "runtime is closed")
	}

	r.next++
	h := r.next
	r.contexts[h] = &guestContext{
		configPath: clean,
		delegates:  make(map[uintptr]clrhost.DelegateKind),
	}
	Logger().Info("guest runtime context opened",
		zap.String("config", clean),
		zap.Uintptr("context", uintptr(h)))
	return h, nil
}

// GetDelegate issues an opaque capability token for the requested kind.
// Tokens are not callable function pointers; they are honored only by
// this runtime's LoadFunc and BindTransport.
func (r *Runtime) GetDelegate(rt clrhost.RuntimeHandle, kind clrhost.DelegateKind) (uintptr, error) {
	switch kind {
	case clrhost.DelegateLoadAssemblyAndGetFunctionPointer,
		clrhost.DelegateGetFunctionPointer,
		clrhost.DelegateLoadAssembly:
	default:
		return 0, errors.InvalidInput(errors.PhaseResolve, "unsupported delegate kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	gc, ok := r.contexts[rt]
	if !ok {
		return 0, errors.InvalidState(errors.PhaseResolve, "unknown runtime context")
	}
	gc.nextToken++
	token := gc.nextToken
	gc.delegates[token] = kind
	return token, nil
}

// CloseRuntime closes one guest context. Modules loaded through it stay
// cached; they belong to the runtime, not the context.
func (r *Runtime) CloseRuntime(rt clrhost.RuntimeHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contexts[rt]; !ok {
		return errors.InvalidState(errors.PhaseInit, "unknown runtime context")
	}
	delete(r.contexts, rt)
	return nil
}

// Close shuts down the wazero runtime and every loaded module.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.contexts = nil
	r.modules = nil
	r.mu.Unlock()

	return r.runtime.Close(r.ctx)
}

func (r *Runtime) liveContext(rt clrhost.RuntimeHandle) (*guestContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gc, ok := r.contexts[rt]
	if !ok {
		return nil, errors.InvalidState(errors.PhaseResolve, "unknown runtime context")
	}
	return gc, nil
}

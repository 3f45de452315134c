package runtime

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
	"github.com/hostbridge/clr-host/hostlib"
	"github.com/hostbridge/clr-host/locator"
)

// Host owns at most one live runtime context. The managed runtime
// itself supports a single initialization per process, so a second
// Initialize with the same configuration returns the existing context
// and an incompatible configuration is a hard failure, never a silent
// duplicate.
type Host struct {
	mu     sync.Mutex
	loader clrhost.Loader
	lib    io.Closer
	ctx    *Context
}

// NewHost creates a host around a loader. The loader is typically a
// *hostlib.Library, a *wasmhost.Runtime, or a test fake.
func NewHost(loader clrhost.Loader) *Host {
	return &Host{loader: loader}
}

// Open loads the host library at the given path and wraps it in a Host
// that closes the library on Close.
func Open(libraryPath string) (*Host, error) {
	lib, err := hostlib.Open(libraryPath)
	if err != nil {
		return nil, err
	}
	return &Host{loader: lib, lib: lib}, nil
}

// OpenDefault locates the newest installed runtime and opens its host
// library.
func OpenDefault() (*Host, error) {
	path, err := locator.Locate()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Initialize starts the managed runtime from a runtime configuration
// file. Initialization is serialized: concurrent callers block until
// the first one finishes and then observe its context. Calling
// Initialize again with the same configuration is idempotent; a
// different configuration while a context is live fails with an
// already-initialized error. On failure no partial state remains.
func (h *Host) Initialize(configPath string) (*Context, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.loader == nil {
		return nil, errors.InvalidState(errors.PhaseInit, "host is closed")
	}

	clean := filepath.Clean(configPath)
	if h.ctx != nil && h.ctx.State() == StateReady {
		if h.ctx.configPath == clean {
			return h.ctx, nil
		}
		return nil, errors.AlreadyInitialized(h.ctx.configPath, clean)
	}

	if fi, err := os.Stat(clean); err != nil {
		return nil, errors.ConfigInvalid(clean, err)
	} else if fi.IsDir() {
		return nil, errors.ConfigInvalid(clean, errors.InvalidInput(errors.PhaseInit, "path is a directory"))
	}

	ctx := &Context{
		host:       h,
		loader:     h.loader,
		configPath: clean,
		delegates:  make(map[clrhost.DelegateKind]uintptr),
	}
	ctx.state.Store(int32(StateInitializing))

	rt, err := h.loader.InitRuntime(clean)
	if err != nil {
		return nil, err
	}
	ctx.rt = rt
	ctx.state.Store(int32(StateReady))
	h.ctx = ctx

	Logger().Info("runtime initialized", zap.String("config", clean))
	return ctx, nil
}

// Context returns the live context, or nil.
func (h *Host) Context() *Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctx
}

// Close closes the live context, if any, and releases the underlying
// host library. The host cannot be reused afterwards.
func (h *Host) Close() error {
	h.mu.Lock()
	ctx := h.ctx
	lib := h.lib
	h.ctx = nil
	h.lib = nil
	h.loader = nil
	h.mu.Unlock()

	var err error
	if ctx != nil {
		err = ctx.Close()
	}
	if lib != nil {
		if cerr := lib.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (h *Host) release(ctx *Context) {
	h.mu.Lock()
	if h.ctx == ctx {
		h.ctx = nil
	}
	h.mu.Unlock()
}

// Context is one initialized managed runtime instance. Its lifecycle is
// Uninitialized -> Initializing -> Ready -> Closed, forward only; any
// operation on a non-ready context fails deterministically instead of
// dereferencing dead native state.
type Context struct {
	host       *Host
	loader     clrhost.Loader
	configPath string
	rt         clrhost.RuntimeHandle
	state      atomic.Int32

	mu        sync.Mutex
	delegates map[clrhost.DelegateKind]uintptr
}

// State returns the current lifecycle state.
func (c *Context) State() State {
	return State(c.state.Load())
}

// ConfigPath returns the configuration the context was initialized with.
func (c *Context) ConfigPath() string {
	return c.configPath
}

// GetDelegate returns the raw function pointer for the requested
// capability, caching it per kind. On a closed or initializing context
// it fails with an invalid-state error.
func (c *Context) GetDelegate(kind clrhost.DelegateKind) (uintptr, error) {
	if s := c.State(); s != StateReady {
		return 0, errors.InvalidState(errors.PhaseResolve, s.String())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.delegates[kind]; ok {
		return d, nil
	}

	d, err := c.loader.GetDelegate(c.rt, kind)
	if err != nil {
		return 0, err
	}
	c.delegates[kind] = d
	return d, nil
}

// LoadFunc returns the load-assembly capability adapted for the
// resolver. The entry points it produces stay valid until the context
// closes.
func (c *Context) LoadFunc() (clrhost.LoadFunc, error) {
	d, err := c.GetDelegate(clrhost.DelegateLoadAssemblyAndGetFunctionPointer)
	if err != nil {
		return nil, err
	}
	return hostlib.LoadFuncFromDelegate(d), nil
}

// Close shuts the runtime context down. It is idempotent: closing an
// already-closed context is a no-op. Closed is terminal; every later
// call on the context fails with an invalid-state error.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if State(c.state.Load()) != StateReady {
		return nil
	}
	c.state.Store(int32(StateClosed))
	c.delegates = nil
	c.host.release(c)

	if err := c.loader.CloseRuntime(c.rt); err != nil {
		return err
	}
	Logger().Info("runtime context closed", zap.String("config", c.configPath))
	return nil
}

package hostlib

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
)

// The three exports every host library must carry. Resolution of all
// three happens at Open time so a malformed library is rejected before
// any runtime state exists.
const (
	symInit        = "hostfxr_initialize_for_runtime_config"
	symGetDelegate = "hostfxr_get_runtime_delegate"
	symClose       = "hostfxr_close"
)

// Library is a loaded host library. It implements clrhost.Loader by
// calling the library's exports through raw function pointers.
type Library struct {
	path   string
	handle uintptr

	initFn     uintptr
	delegateFn uintptr
	closeFn    uintptr
}

// Open loads the host library at path and resolves its required
// exports. Failures are typed library-load errors; on a missing export
// the library handle is released before returning.
func Open(path string) (*Library, error) {
	handle, err := dlopen(path)
	if err != nil {
		return nil, errors.LibraryLoad("open "+path, err)
	}

	lib := &Library{path: path, handle: handle}
	for _, sym := range []struct {
		name string
		dst  *uintptr
	}{
		{symInit, &lib.initFn},
		{symGetDelegate, &lib.delegateFn},
		{symClose, &lib.closeFn},
	} {
		ptr, err := dlsym(handle, sym.name)
		if err != nil {
			_ = dlclose(handle)
			return nil, errors.LibraryLoad("missing export "+sym.name, err)
		}
		*sym.dst = ptr
	}

	Logger().Debug("host library loaded", zap.String("path", path))
	return lib, nil
}

// Path returns the filesystem path the library was loaded from.
func (l *Library) Path() string { return l.path }

// Close releases the library handle. The runtime context must already
// be closed.
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := dlclose(l.handle)
	l.handle = 0
	if err != nil {
		return errors.LibraryLoad("close "+l.path, err)
	}
	return nil
}

// InitRuntime implements clrhost.Loader.
func (l *Library) InitRuntime(configPath string) (clrhost.RuntimeHandle, error) {
	cfg := hostString(configPath)
	var ctx uintptr
	r1, _, _ := purego.SyscallN(l.initFn,
		hostStringPtr(cfg),
		0, // initialization parameters, none
		uintptr(unsafe.Pointer(&ctx)))
	runtime.KeepAlive(cfg)

	rc := uint32(r1)
	if !initSucceeded(rc) {
		// The loader hands back a context even on some failures;
		// close it so no partial state stays behind.
		if ctx != 0 {
			purego.SyscallN(l.closeFn, ctx)
		}
		return 0, initError(configPath, rc)
	}
	return clrhost.RuntimeHandle(ctx), nil
}

// GetDelegate implements clrhost.Loader.
func (l *Library) GetDelegate(rt clrhost.RuntimeHandle, kind clrhost.DelegateKind) (uintptr, error) {
	var delegate uintptr
	r1, _, _ := purego.SyscallN(l.delegateFn,
		uintptr(rt),
		uintptr(kind),
		uintptr(unsafe.Pointer(&delegate)))

	if rc := uint32(r1); rc != statusSuccess {
		return 0, delegateError(kind.String(), rc)
	}
	return delegate, nil
}

// CloseRuntime implements clrhost.Loader.
func (l *Library) CloseRuntime(rt clrhost.RuntimeHandle) error {
	r1, _, _ := purego.SyscallN(l.closeFn, uintptr(rt))
	if rc := uint32(r1); rc != statusSuccess {
		return errors.New(errors.PhaseInit, errors.KindLibraryLoad).
			Status(rc).
			Detail("close runtime context").
			Build()
	}
	return nil
}

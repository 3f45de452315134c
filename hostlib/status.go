package hostlib

import (
	"github.com/hostbridge/clr-host/errors"
)

// Host loader status codes, as defined by the hosting contract.
const (
	statusSuccess                    uint32 = 0x00000000
	statusHostAlreadyInitialized     uint32 = 0x00000001
	statusDifferentRuntimeProperties uint32 = 0x00000002

	statusInvalidArg               uint32 = 0x80008081
	statusCoreHostLibLoadFailure   uint32 = 0x80008082
	statusCoreHostLibMissing       uint32 = 0x80008083
	statusCoreHostEntryPointFail   uint32 = 0x80008084
	statusInvalidConfigFile        uint32 = 0x80008093
	statusFrameworkMissing         uint32 = 0x80008096
	statusHostInvalidState         uint32 = 0x800080a3
	statusCoreHostIncompatible     uint32 = 0x800080a5
	statusHostApiUnsupportedVer    uint32 = 0x800080a6
	statusHostFeatureDisabled      uint32 = 0x800080a7
)

// Managed HRESULTs surfaced by the load-assembly delegate.
const (
	hresultFileNotFound  uint32 = 0x80070002
	hresultTypeLoad      uint32 = 0x80131522
	hresultMissingMethod uint32 = 0x80131513
)

// initSucceeded reports whether an initialize status is a success,
// including the "already initialized with compatible configuration"
// variants.
func initSucceeded(rc uint32) bool {
	switch rc {
	case statusSuccess, statusHostAlreadyInitialized, statusDifferentRuntimeProperties:
		return true
	}
	return false
}

func initError(configPath string, rc uint32) error {
	switch rc {
	case statusInvalidConfigFile, statusInvalidArg:
		return errors.New(errors.PhaseInit, errors.KindConfigInvalid).
			Status(rc).
			Detail("runtime config %q rejected by loader", configPath).
			Build()
	case statusCoreHostIncompatible, statusHostInvalidState:
		return errors.New(errors.PhaseInit, errors.KindAlreadyInitialized).
			Status(rc).
			Detail("runtime already initialized with an incompatible configuration").
			Build()
	case statusFrameworkMissing:
		return errors.New(errors.PhaseInit, errors.KindLibraryLoad).
			Status(rc).
			Detail("required framework not installed").
			Build()
	default:
		return errors.New(errors.PhaseInit, errors.KindLibraryLoad).
			Status(rc).
			Detail("runtime initialization failed").
			Build()
	}
}

func delegateError(kind string, rc uint32) error {
	return errors.New(errors.PhaseResolve, errors.KindNotFound).
		Status(rc).
		Detail("delegate %s unavailable", kind).
		Build()
}

func resolveError(assemblyPath, typeName, methodName string, rc uint32) error {
	switch rc {
	case hresultFileNotFound:
		return errors.New(errors.PhaseResolve, errors.KindNotFound).
			Status(rc).
			Detail("assembly %q not found", assemblyPath).
			Build()
	case hresultTypeLoad:
		return errors.New(errors.PhaseResolve, errors.KindNotFound).
			Status(rc).
			Detail("type %q not found", typeName).
			Build()
	case hresultMissingMethod:
		return errors.New(errors.PhaseResolve, errors.KindNotFound).
			Status(rc).
			Detail("method %q not found", methodName).
			Build()
	default:
		return errors.New(errors.PhaseResolve, errors.KindNotFound).
			Status(rc).
			Detail("entry point %s.%s did not resolve", typeName, methodName).
			Build()
	}
}

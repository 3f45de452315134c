package locator

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/coreos/go-semver/semver"

	"github.com/hostbridge/clr-host/errors"
)

// EnvRoot overrides the installation root when set, matching the
// runtime ecosystem's convention.
const EnvRoot = "DOTNET_ROOT"

// Locate finds the host library of the newest runtime installation.
// It is a pure query: no library is loaded and no state is created.
// A missing installation reports a typed not-found error rather than
// panicking.
func Locate() (string, error) {
	return LocateIn(probeRoots()...)
}

// LocateIn finds the host library under the given installation roots,
// in order. Within a root, version directories are compared as semantic
// versions and the highest stable version wins; prerelease versions are
// considered only when no stable version exists.
func LocateIn(roots ...string) (string, error) {
	for _, root := range roots {
		if root == "" {
			continue
		}
		if path, ok := probeRoot(root); ok {
			return path, nil
		}
	}
	return "", errors.NotFound(errors.PhaseLocate, "host library", LibraryName())
}

// LibraryName returns the platform's host library file name.
func LibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "hostfxr.dll"
	case "darwin":
		return "libhostfxr.dylib"
	default:
		return "libhostfxr.so"
	}
}

func probeRoots() []string {
	roots := []string{os.Getenv(EnvRoot)}
	switch runtime.GOOS {
	case "windows":
		roots = append(roots, filepath.Join(os.Getenv("ProgramFiles"), "dotnet"))
	case "darwin":
		roots = append(roots, "/usr/local/share/dotnet", "/opt/homebrew/share/dotnet")
	default:
		roots = append(roots, "/usr/share/dotnet", "/usr/lib/dotnet")
	}
	return roots
}

func probeRoot(root string) (string, bool) {
	fxrDir := filepath.Join(root, "host", "fxr")
	dirs, err := os.ReadDir(fxrDir)
	if err != nil {
		return "", false
	}

	var stable, prerelease []*semver.Version
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		v, err := semver.NewVersion(d.Name())
		if err != nil {
			continue
		}
		if v.PreRelease == "" {
			stable = append(stable, v)
		} else {
			prerelease = append(prerelease, v)
		}
	}

	candidates := stable
	if len(candidates) == 0 {
		candidates = prerelease
	}
	sort.Sort(sort.Reverse(semver.Versions(candidates)))

	for _, v := range candidates {
		path := filepath.Join(fxrDir, v.String(), LibraryName())
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, true
		}
	}
	return "", false
}

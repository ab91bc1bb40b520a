package compiler

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNotFound is returned when no executable could be located.
var ErrNotFound = errors.New("executable not found")

// Resolver locates an executable.
type Resolver interface {
	Resolve() (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func() (string, error)

func (f ResolverFunc) Resolve() (string, error) { return f() }

// Explicit resolves to path. An empty path is skipped; a path that is set
// but not executable is an error, not a fall-through.
func Explicit(path string) Resolver {
	return ResolverFunc(func() (string, error) {
		if path == "" {
			return "", ErrNotFound
		}
		if !isExecutable(path) {
			return "", fmt.Errorf("%s is not an executable file", path)
		}
		return path, nil
	})
}

// FromEnv resolves to the path named by an environment variable.
func FromEnv(key string) Resolver {
	return ResolverFunc(func() (string, error) {
		path := os.Getenv(key)
		if path == "" {
			return "", ErrNotFound
		}
		if !isExecutable(path) {
			return "", fmt.Errorf("%s=%s is not an executable file", key, path)
		}
		return path, nil
	})
}

// FromPath looks each name up on PATH.
func FromPath(names ...string) Resolver {
	return ResolverFunc(func() (string, error) {
		for _, name := range names {
			if path, err := exec.LookPath(name); err == nil {
				return path, nil
			}
		}
		return "", ErrNotFound
	})
}

// KnownPaths checks a fixed table of glob patterns in order.
func KnownPaths(patterns ...string) Resolver {
	return ResolverFunc(func() (string, error) {
		for _, pattern := range patterns {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				continue
			}
			for _, m := range matches {
				if isExecutable(m) {
					return m, nil
				}
			}
		}
		return "", ErrNotFound
	})
}

// Chain tries each resolver in turn and returns the first hit. Resolvers
// that report ErrNotFound are skipped; any other error stops the search.
type Chain []Resolver

func (c Chain) Resolve() (string, error) {
	for _, r := range c {
		path, err := r.Resolve()
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", ErrNotFound
}

// OpenSCADResolver searches, in order: the explicit path, $OPENSCAD_BIN,
// PATH, and the platform install locations.
func OpenSCADResolver(explicit string) Resolver {
	return Chain{
		Explicit(explicit),
		FromEnv("OPENSCAD_BIN"),
		FromPath("openscad", "openscad.exe", "OpenSCAD"),
		KnownPaths(knownOpenSCADPaths(runtime.GOOS)...),
	}
}

func knownOpenSCADPaths(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\OpenSCAD*\openscad.exe`,
			`C:\Program Files (x86)\OpenSCAD*\openscad.exe`,
		}
	case "darwin":
		return []string{
			"/Applications/OpenSCAD*.app/Contents/MacOS/OpenSCAD",
			"/opt/homebrew/bin/openscad",
			"/usr/local/bin/openscad",
		}
	default:
		return []string{
			"/usr/bin/openscad",
			"/usr/local/bin/openscad",
			"/snap/bin/openscad",
			"/var/lib/flatpak/exports/bin/org.openscad.OpenSCAD",
		}
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}

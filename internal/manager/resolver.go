// Package manager resolves logical package-manager identifiers (npm, uv,
// pip) to concrete executable paths. Resolution order: explicit override
// from configuration, then platform-specific probing. The first
// successful resolution is cached for the lifetime of the process.
package manager

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/tobyash86/pkgmgr-mcp/internal/config"
)

// ID identifies a supported package manager.
type ID string

const (
	Npm ID = "npm"
	Uv  ID = "uv"
	Pip ID = "pip"
)

// ParseID validates a raw manager identifier.
func ParseID(raw string) (ID, error) {
	switch ID(raw) {
	case Npm, Uv, Pip:
		return ID(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownManager, raw)
	}
}

// probe describes the ordered executable candidates for one manager on
// one platform: names are looked up on PATH, fixed returns absolute
// locations to stat directly.
type probe struct {
	names []string
	fixed func(getenv func(string) string) []string
}

// probeTable is keyed by GOOS; the "" key is the non-Windows default.
var probeTable = map[string]map[ID]probe{
	"windows": {
		Npm: {
			names: []string{"npm.cmd", "npm.exe", "npm"},
			fixed: func(getenv func(string) string) []string {
				var paths []string
				if appdata := getenv("APPDATA"); appdata != "" {
					paths = append(paths, filepath.Join(appdata, "npm", "npm.cmd"))
				}
				if pf := getenv("PROGRAMFILES"); pf != "" {
					paths = append(paths, filepath.Join(pf, "nodejs", "npm.cmd"))
				}
				if pf86 := getenv("PROGRAMFILES(X86)"); pf86 != "" {
					paths = append(paths, filepath.Join(pf86, "nodejs", "npm.cmd"))
				}
				return paths
			},
		},
		Uv:  {names: []string{"uv.exe", "uv"}},
		Pip: {names: []string{"pip.exe", "pip3.exe", "pip", "pip3"}},
	},
	"": {
		Npm: {names: []string{"npm"}},
		Uv:  {names: []string{"uv"}},
		Pip: {names: []string{"pip", "pip3"}},
	},
}

// Resolver locates manager executables with one-time caching.
// Failed resolutions are not cached; a manager installed after startup is
// picked up on the next request.
type Resolver struct {
	overrides map[ID]string
	goos      string

	lookPath   func(string) (string, error)
	fileExists func(string) bool
	getenv     func(string) string

	mu    sync.Mutex
	cache map[ID]string
}

// NewResolver creates a Resolver using the real OS environment, with
// executable overrides taken from the configuration.
func NewResolver(cfg *config.Config) *Resolver {
	r := &Resolver{
		overrides: map[ID]string{},
		goos:      runtime.GOOS,
		lookPath:  exec.LookPath,
		fileExists: func(path string) bool {
			info, err := os.Stat(path)
			return err == nil && !info.IsDir()
		},
		getenv: os.Getenv,
		cache:  map[ID]string{},
	}
	if cfg.NpmPath != "" {
		r.overrides[Npm] = cfg.NpmPath
	}
	if cfg.UvPath != "" {
		r.overrides[Uv] = cfg.UvPath
	}
	if cfg.PipPath != "" {
		r.overrides[Pip] = cfg.PipPath
	}
	return r
}

// Resolve returns the executable path for a manager. The first successful
// resolution wins and is reused by every later request; concurrent first
// resolutions are serialized through the cache lock.
func (r *Resolver) Resolve(id ID) (string, error) {
	if _, err := ParseID(string(id)); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if path, ok := r.cache[id]; ok {
		return path, nil
	}

	path, err := r.locate(id)
	if err != nil {
		return "", err
	}
	r.cache[id] = path
	return path, nil
}

func (r *Resolver) locate(id ID) (string, error) {
	// Explicit override wins unconditionally; a misconfigured override is
	// a configuration error, not something to silently fall through.
	if override, ok := r.overrides[id]; ok {
		return override, nil
	}

	probes, ok := probeTable[r.goos]
	if !ok {
		probes = probeTable[""]
	}
	p := probes[id]

	for _, name := range p.names {
		if path, err := r.lookPath(name); err == nil {
			return path, nil
		}
	}
	if p.fixed != nil {
		for _, candidate := range p.fixed(r.getenv) {
			if r.fileExists(candidate) {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrManagerNotFound, id)
}

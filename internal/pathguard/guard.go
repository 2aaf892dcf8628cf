// Package pathguard confines untrusted request paths to a configured
// project root. Confinement compares canonical paths (symlinks resolved)
// rather than string prefixes, so symlinked escapes and `..` traversal
// are both rejected.
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Mode selects the existence requirement applied after confinement.
type Mode int

const (
	// RequireDir requires the confined path to exist and be a directory
	// (install, uninstall, add targets).
	RequireDir Mode = iota
	// RequireParent requires only the parent directory to exist; the path
	// itself may be created afterwards (init, create_venv targets).
	RequireParent
)

// Guard validates paths against a canonicalised project root.
type Guard struct {
	root string
}

// New canonicalises the project root and returns a Guard for it.
// The root must exist and be a directory.
func New(projectRoot string) (*Guard, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root symlinks: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("project root does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", resolved)
	}
	return &Guard{root: resolved}, nil
}

// Root returns the canonical project root.
func (g *Guard) Root() string {
	return g.root
}

// Confine normalises path (relative paths are interpreted against the
// project root), resolves symlinks on its existing prefix, and verifies
// the canonical result stays at or below the root. The returned path is
// absolute and canonical.
func (g *Guard) Confine(path string, mode Mode) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathNotFound)
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(g.root, abs)
	}
	abs = filepath.Clean(abs)

	// Resolve symlinks on the longest existing prefix so a link inside the
	// root pointing outside it is caught even when the tail does not exist.
	resolved, tail, err := resolveExistingPrefix(abs)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalise %s: %w", path, err)
	}
	canonical := resolved
	if tail != "" {
		canonical = filepath.Join(resolved, tail)
	}

	if !withinRoot(canonical, g.root) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}

	switch mode {
	case RequireDir:
		info, err := os.Stat(canonical)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a directory", ErrPathNotFound, path)
		}
	case RequireParent:
		parent := filepath.Dir(canonical)
		info, err := os.Stat(parent)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: parent directory of %s", ErrPathNotFound, path)
		}
	}

	return canonical, nil
}

// resolveExistingPrefix walks up from path until EvalSymlinks succeeds,
// returning the canonical existing prefix and the untouched tail.
func resolveExistingPrefix(path string) (resolved string, tail string, err error) {
	current := path
	for {
		r, evalErr := filepath.EvalSymlinks(current)
		if evalErr == nil {
			return r, tail, nil
		}
		if !os.IsNotExist(evalErr) {
			return "", "", evalErr
		}
		parent := filepath.Dir(current)
		if parent == current {
			// Hit the filesystem root without finding an existing prefix.
			return current, tail, nil
		}
		tail = filepath.Join(filepath.Base(current), tail)
		current = parent
	}
}

// withinRoot reports whether path equals root or is a descendant of it.
func withinRoot(path, root string) bool {
	p, r := path, root
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
		r = strings.ToLower(r)
	}
	rel, err := filepath.Rel(r, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

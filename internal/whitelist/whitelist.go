// Package whitelist validates requested package names against a
// configured allow-set. Checks run strictly before any subprocess is
// spawned; a request is rejected as a whole when any single entry is
// disallowed.
package whitelist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// specifier prefixes stripped from a package spec before membership
// checks. Ordered longest-first so "===" is not split as "==".
var specifiers = []string{"===", "==", ">=", "<=", "~=", "!=", ">", "<"}

// Validator checks package specs against an allow-set.
// A nil allow-set (no whitelist configured, or a "*" entry) permits
// everything. Matching is exact and case-sensitive.
type Validator struct {
	allowed map[string]struct{}
}

// New builds a Validator from the configured package list.
func New(packages []string) *Validator {
	v := &Validator{}
	if len(packages) == 0 {
		return v
	}
	allowed := make(map[string]struct{}, len(packages))
	for _, name := range packages {
		name = strings.TrimSpace(name)
		if name == "*" {
			return &Validator{}
		}
		if name != "" {
			allowed[name] = struct{}{}
		}
	}
	v.allowed = allowed
	return v
}

// Unrestricted reports whether every package is permitted.
func (v *Validator) Unrestricted() bool {
	return v.allowed == nil
}

// CheckPackage validates a single package spec. Version specifiers and
// extras are ignored: "requests==2.31" and "requests[socks]" both match
// a whitelist entry "requests".
func (v *Validator) CheckPackage(spec string) error {
	if v.Unrestricted() {
		return nil
	}
	name := PackageName(spec)
	if name == "" {
		return fmt.Errorf("%w: empty package spec", ErrNotAllowed)
	}
	if _, ok := v.allowed[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotAllowed, name)
	}
	return nil
}

// CheckRequirementsFile reads a requirements-style file and validates
// every non-comment, non-blank line. The whole file fails if any single
// entry is disallowed.
func (v *Validator) CheckRequirementsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read requirements file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := v.CheckPackage(line); err != nil {
			return fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requirements file: %w", err)
	}
	return nil
}

// PackageName strips version specifiers, extras, environment markers and
// npm-style @version suffixes from a package spec, returning the bare
// package name.
func PackageName(spec string) string {
	name := strings.TrimSpace(spec)

	// Environment markers ("requests ; python_version < '3.9'").
	if i := strings.IndexByte(name, ';'); i != -1 {
		name = strings.TrimSpace(name[:i])
	}
	for _, sep := range specifiers {
		if i := strings.Index(name, sep); i != -1 {
			name = name[:i]
		}
	}
	// Extras ("requests[socks]").
	if i := strings.IndexByte(name, '['); i != -1 {
		name = name[:i]
	}
	// npm version suffix ("react@18"); scoped packages keep their leading @.
	if len(name) > 1 {
		if i := strings.IndexByte(name[1:], '@'); i != -1 {
			name = name[:i+1]
		}
	}
	return strings.TrimSpace(name)
}

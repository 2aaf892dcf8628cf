package pathguard

import "errors"

// Sentinel errors for path confinement failures.
var (
	// ErrPathTraversal is returned when a path resolves outside the project root.
	ErrPathTraversal = errors.New("path is outside the project root")
	// ErrPathNotFound is returned when a path (or its parent, depending on
	// the existence mode) does not exist.
	ErrPathNotFound = errors.New("path does not exist")
)

package manager

import "errors"

// ErrManagerNotFound is returned when no executable could be located for
// a manager on this platform.
var ErrManagerNotFound = errors.New("package manager executable not found")

// ErrUnknownManager is returned for a manager identifier outside
// {npm, uv, pip}.
var ErrUnknownManager = errors.New("unknown package manager")

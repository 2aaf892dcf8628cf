package whitelist

import "errors"

// ErrNotAllowed is returned when a package is not in the configured whitelist.
var ErrNotAllowed = errors.New("package is not in the whitelist")

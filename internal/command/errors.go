package command

import "fmt"

// BuildError indicates a malformed or unsupported tool request discovered
// while constructing the command line, before any subprocess is spawned.
type BuildError struct {
	Tool   string
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("cannot build %s command: %s", e.Tool, e.Reason)
}

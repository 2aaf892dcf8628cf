package executor

import (
	"fmt"
)

// CommandError represents supervisor-level command failures (start, pipe
// setup) as opposed to the command itself exiting non-zero.
type CommandError struct {
	Cmd   string
	Cause error
	Stage string // "pipes", "start"
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed at %s: %v", e.Cmd, e.Stage, e.Cause)
}
func (e *CommandError) Unwrap() error { return e.Cause }

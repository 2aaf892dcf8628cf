package dispatcher

import (
	"fmt"

	"github.com/tobyash86/pkgmgr-mcp/internal/command"
)

// Error kinds reported in error responses. Validation-stage kinds are
// deterministic and never retried; execution-stage kinds reflect the
// child process outcome.
const (
	KindPathTraversal      = "PathTraversal"
	KindPathNotFound       = "PathNotFound"
	KindWhitelistViolation = "WhitelistViolation"
	KindManagerNotFound    = "ManagerNotFound"
	KindCommandBuildError  = "CommandBuildError"
	KindExecutionTimeout   = "ExecutionTimeout"
	KindExecutionFailed    = "ExecutionFailed"
)

// ToolRequest is the untrusted parameter mapping of one tool call,
// decoded before any validation runs.
type ToolRequest struct {
	Path     string   `mapstructure:"path"`
	Manager  string   `mapstructure:"manager"`
	Package  string   `mapstructure:"package"`
	Args     []string `mapstructure:"args"`
	VenvName string   `mapstructure:"venv_name"`
}

// Validate checks the per-tool required fields. Anything beyond presence
// (path confinement, whitelist, manager support) is a later stage.
func (r *ToolRequest) Validate(tool string) error {
	if r.Path == "" {
		return &command.BuildError{Tool: tool, Reason: "path is required"}
	}
	switch tool {
	case command.ToolInstall, command.ToolUninstall:
		if r.Package == "" {
			return &command.BuildError{Tool: tool, Reason: "package is required"}
		}
	case command.ToolAdd:
		if len(r.Args) == 0 {
			return &command.BuildError{Tool: tool, Reason: "args is required"}
		}
	}
	return nil
}

// Response is the uniform payload returned to the RPC layer for every
// request, success or failure.
type Response struct {
	Status          string `json:"status"`
	Stdout          string `json:"stdout,omitempty"`
	ExitCode        int    `json:"exit_code"`
	DurationMs      int64  `json:"duration_ms,omitempty"`
	OutputTruncated bool   `json:"output_truncated,omitempty"`
	Kind            string `json:"kind,omitempty"`
	Message         string `json:"message,omitempty"`
}

func okResponse(stdout string, truncated bool, durationMs int64) Response {
	return Response{
		Status:          "ok",
		Stdout:          stdout,
		ExitCode:        0,
		DurationMs:      durationMs,
		OutputTruncated: truncated,
	}
}

func errResponse(kind, format string, args ...any) Response {
	return Response{
		Status:  "error",
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

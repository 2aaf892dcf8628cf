// Package command constructs the exact argument vector for a validated
// tool request. Vectors are always built as discrete elements and are
// never passed through a shell interpreter.
package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/tobyash86/pkgmgr-mcp/internal/config"
	"github.com/tobyash86/pkgmgr-mcp/internal/manager"
)

// Tool names accepted by the dispatcher.
const (
	ToolInstall    = "install"
	ToolUninstall  = "uninstall"
	ToolInit       = "init"
	ToolCreateVenv = "create_venv"
	ToolAdd        = "add"
)

// ResolvedCommand is the fully-determined subprocess invocation for one
// request: executable, argument vector, working directory, timeout and
// environment overrides. Built once per request; immutable thereafter.
type ResolvedCommand struct {
	Exe     string
	Args    []string
	Dir     string
	Timeout time.Duration
	Env     map[string]string
}

// Input carries the validated request fields the builder needs. Dir must
// already be confined by the path guard.
type Input struct {
	Manager  manager.ID
	Exe      string
	Dir      string
	Package  string
	Args     []string
	VenvName string
}

// baseEnv is overlaid on every subprocess so package managers emit plain,
// non-interactive output.
func baseEnv() map[string]string {
	return map[string]string{"NO_COLOR": "1"}
}

// RequirementsFile extracts the file name from a requirements-style
// package spec such as "-r requirements.txt".
func RequirementsFile(spec string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(spec), "-r")
	if !ok {
		return "", false
	}
	file := strings.TrimSpace(rest)
	return file, file != ""
}

// Build constructs the ResolvedCommand for a tool per the command matrix.
// Unsupported tool/manager combinations yield a *BuildError.
func Build(tool string, in Input, cfg *config.Config) (*ResolvedCommand, error) {
	switch tool {
	case ToolInstall:
		return buildInstall(in, cfg)
	case ToolUninstall:
		return buildUninstall(in, cfg)
	case ToolInit:
		return buildInit(in, cfg)
	case ToolCreateVenv:
		return buildCreateVenv(in, cfg)
	case ToolAdd:
		return buildAdd(in, cfg)
	default:
		return nil, &BuildError{Tool: tool, Reason: "unknown tool"}
	}
}

func buildInstall(in Input, cfg *config.Config) (*ResolvedCommand, error) {
	if in.Package == "" {
		return nil, &BuildError{Tool: ToolInstall, Reason: "package is required"}
	}

	var args []string
	if file, ok := RequirementsFile(in.Package); ok {
		switch in.Manager {
		case manager.Uv:
			args = []string{"add", "-r", file}
		case manager.Pip:
			args = []string{"install", "-r", file}
		default:
			// requirements.txt is Python-specific; npm has no equivalent.
			return nil, &BuildError{Tool: ToolInstall, Reason: fmt.Sprintf("%s does not support requirements files", in.Manager)}
		}
	} else {
		switch in.Manager {
		case manager.Uv:
			args = []string{"add", in.Package}
		case manager.Pip:
			args = []string{"install", in.Package}
		case manager.Npm:
			args = []string{"install", in.Package}
		default:
			return nil, &BuildError{Tool: ToolInstall, Reason: "unsupported manager"}
		}
	}

	return &ResolvedCommand{
		Exe:     in.Exe,
		Args:    args,
		Dir:     in.Dir,
		Timeout: cfg.InstallTimeout,
		Env:     baseEnv(),
	}, nil
}

func buildUninstall(in Input, cfg *config.Config) (*ResolvedCommand, error) {
	if in.Package == "" {
		return nil, &BuildError{Tool: ToolUninstall, Reason: "package is required"}
	}

	var args []string
	switch in.Manager {
	case manager.Uv:
		args = []string{"remove", in.Package}
	case manager.Pip:
		args = []string{"uninstall", "-y", in.Package}
	case manager.Npm:
		args = []string{"uninstall", in.Package}
	default:
		return nil, &BuildError{Tool: ToolUninstall, Reason: "unsupported manager"}
	}

	return &ResolvedCommand{
		Exe:     in.Exe,
		Args:    args,
		Dir:     in.Dir,
		Timeout: cfg.UninstallTimeout,
		Env:     baseEnv(),
	}, nil
}

func buildInit(in Input, cfg *config.Config) (*ResolvedCommand, error) {
	var args []string
	switch in.Manager {
	case manager.Uv:
		args = []string{"init"}
	case manager.Npm:
		// Always non-interactive; npm init without -y prompts on a TTY.
		args = []string{"init", "-y"}
	default:
		return nil, &BuildError{Tool: ToolInit, Reason: fmt.Sprintf("%s has no project init", in.Manager)}
	}

	return &ResolvedCommand{
		Exe:     in.Exe,
		Args:    args,
		Dir:     in.Dir,
		Timeout: cfg.InitTimeout,
		Env:     baseEnv(),
	}, nil
}

func buildCreateVenv(in Input, cfg *config.Config) (*ResolvedCommand, error) {
	if in.Manager != manager.Uv {
		return nil, &BuildError{Tool: ToolCreateVenv, Reason: "virtual environments require uv"}
	}
	name := in.VenvName
	if name == "" {
		name = cfg.VenvName
	}

	return &ResolvedCommand{
		Exe:     in.Exe,
		Args:    []string{"venv", name},
		Dir:     in.Dir,
		Timeout: cfg.VenvTimeout,
		Env:     baseEnv(),
	}, nil
}

func buildAdd(in Input, cfg *config.Config) (*ResolvedCommand, error) {
	if in.Manager != manager.Uv {
		return nil, &BuildError{Tool: ToolAdd, Reason: "add is a uv operation"}
	}
	if len(in.Args) == 0 {
		return nil, &BuildError{Tool: ToolAdd, Reason: "args is required"}
	}

	return &ResolvedCommand{
		Exe:     in.Exe,
		Args:    append([]string{"add"}, in.Args...),
		Dir:     in.Dir,
		Timeout: cfg.InstallTimeout,
		Env:     baseEnv(),
	}, nil
}

// ManifestFile returns the project manifest a manager expects in its
// working directory, used to decide whether the project needs `init`
// before an install.
func ManifestFile(id manager.ID) (string, bool) {
	switch id {
	case manager.Uv:
		return "pyproject.toml", true
	case manager.Npm:
		return "package.json", true
	default:
		return "", false
	}
}

// Package dispatcher routes validated tool requests through the
// validation-and-execution pipeline: path guard, whitelist, manager
// resolution, command construction, supervised execution. The pipeline is
// terminal on first failure; only the execution stage may produce either
// outcome.
package dispatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"

	"github.com/tobyash86/pkgmgr-mcp/internal/command"
	"github.com/tobyash86/pkgmgr-mcp/internal/config"
	"github.com/tobyash86/pkgmgr-mcp/internal/executor"
	"github.com/tobyash86/pkgmgr-mcp/internal/manager"
	"github.com/tobyash86/pkgmgr-mcp/internal/pathguard"
	"github.com/tobyash86/pkgmgr-mcp/internal/whitelist"
)

// managerResolver locates package-manager executables.
type managerResolver interface {
	Resolve(id manager.ID) (string, error)
}

// supervisor runs one bounded subprocess per call.
type supervisor interface {
	Run(ctx context.Context, argv []string, dir string, env map[string]string, timeout time.Duration) (*executor.Result, error)
}

// Dispatcher is the per-request entry point. All fields are read-only
// after construction; concurrent dispatches share them safely.
type Dispatcher struct {
	cfg      *config.Config
	guard    *pathguard.Guard
	wl       *whitelist.Validator
	resolver managerResolver
	sup      supervisor
	slots    chan struct{}
	log      zerolog.Logger
}

// New creates a Dispatcher. The slot count comes from cfg.MaxConcurrent;
// requests beyond it are rejected, not queued, to keep latency bounded.
func New(cfg *config.Config, guard *pathguard.Guard, wl *whitelist.Validator, resolver managerResolver, sup supervisor, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		guard:    guard,
		wl:       wl,
		resolver: resolver,
		sup:      sup,
		slots:    make(chan struct{}, cfg.MaxConcurrent),
		log:      log,
	}
}

// Dispatch handles one tool call end to end and always returns a
// Response; failures are data, never panics or bare errors.
func (d *Dispatcher) Dispatch(ctx context.Context, tool string, args map[string]any) Response {
	log := d.log.With().Str("tool", tool).Str("request_id", uuid.NewString()).Logger()

	var req ToolRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		log.Warn().Err(err).Msg("invalid arguments")
		return errResponse(KindCommandBuildError, "invalid arguments: %v", err)
	}
	if err := req.Validate(tool); err != nil {
		log.Warn().Err(err).Msg("request validation failed")
		return errResponse(KindCommandBuildError, "%v", err)
	}

	select {
	case d.slots <- struct{}{}:
		defer func() { <-d.slots }()
	default:
		log.Warn().Msg("concurrency limit reached, rejecting")
		return errResponse(KindExecutionFailed, "server busy: %d operations already running", d.cfg.MaxConcurrent)
	}

	resp := d.dispatch(ctx, log, tool, &req)
	log.Info().Str("status", resp.Status).Str("kind", resp.Kind).Msg("request finished")
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, log zerolog.Logger, tool string, req *ToolRequest) Response {
	dir, err := d.guard.Confine(req.Path, existenceMode(tool))
	if err != nil {
		log.Warn().Err(err).Str("path", req.Path).Msg("path rejected")
		return errResponse(pathKind(err), "%v", err)
	}

	if resp, ok := d.checkPackages(tool, req, dir); !ok {
		log.Warn().Str("kind", resp.Kind).Msg("package arguments rejected")
		return resp
	}

	mgr, err := d.managerFor(tool, req)
	if err != nil {
		return errResponse(KindCommandBuildError, "%v", err)
	}
	exe, err := d.resolver.Resolve(mgr)
	if err != nil {
		log.Error().Err(err).Str("manager", string(mgr)).Msg("manager resolution failed")
		if errors.Is(err, manager.ErrUnknownManager) {
			return errResponse(KindCommandBuildError, "%v", err)
		}
		return errResponse(KindManagerNotFound, "%v", err)
	}

	cmd, err := command.Build(tool, command.Input{
		Manager:  mgr,
		Exe:      exe,
		Dir:      dir,
		Package:  req.Package,
		Args:     req.Args,
		VenvName: req.VenvName,
	}, d.cfg)
	if err != nil {
		log.Warn().Err(err).Msg("command build failed")
		return errResponse(KindCommandBuildError, "%v", err)
	}

	// init and create_venv may target a directory that does not exist yet.
	if tool == command.ToolInit || tool == command.ToolCreateVenv {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errResponse(KindExecutionFailed, "create target directory: %v", err)
		}
	}

	if resp, ok := d.autoInit(ctx, log, tool, mgr, exe, dir); !ok {
		return resp
	}

	result, err := d.sup.Run(ctx, append([]string{cmd.Exe}, cmd.Args...), cmd.Dir, cmd.Env, cmd.Timeout)
	if err != nil {
		log.Error().Err(err).Msg("execution fault")
		return errResponse(KindExecutionFailed, "%v", err)
	}
	return d.normalize(tool, req, dir, result)
}

// valueFlags are uv add flags that consume the following argument; the
// value is not a package name.
var valueFlags = map[string]struct{}{
	"-c": {}, "--constraints": {},
	"-p": {}, "--python": {},
	"-f": {}, "--find-links": {},
	"--index": {}, "--default-index": {},
	"--index-url": {}, "--extra-index-url": {},
	"--branch": {}, "--tag": {}, "--rev": {},
	"--extra": {}, "--group": {},
}

// checkPackages validates the package arguments of the tools that install
// packages. Requirements-file paths are always confined to the project
// root, whitelist or not; membership checks apply only when a whitelist
// is configured.
func (d *Dispatcher) checkPackages(tool string, req *ToolRequest, dir string) (Response, bool) {
	switch tool {
	case command.ToolInstall:
		if file, ok := command.RequirementsFile(req.Package); ok {
			return d.checkRequirements(file, dir)
		}
		if err := d.wl.CheckPackage(req.Package); err != nil {
			return errResponse(KindWhitelistViolation, "%v", err), false
		}
	case command.ToolAdd:
		for i := 0; i < len(req.Args); i++ {
			arg := req.Args[i]
			if arg == "-r" || arg == "--requirements" {
				if i+1 >= len(req.Args) {
					return errResponse(KindCommandBuildError, "%s is missing a file argument", arg), false
				}
				if resp, ok := d.checkRequirements(req.Args[i+1], dir); !ok {
					return resp, false
				}
				i++
				continue
			}
			if _, ok := valueFlags[arg]; ok {
				i++
				continue
			}
			if len(arg) > 0 && arg[0] == '-' {
				continue
			}
			if err := d.wl.CheckPackage(arg); err != nil {
				return errResponse(KindWhitelistViolation, "%v", err), false
			}
		}
	}
	return Response{}, true
}

// checkRequirements confines a requirements-file path to the project root
// and, when a whitelist is configured, validates every entry in the file.
// Confinement is unconditional: the subprocess must never be handed a
// path outside the root.
func (d *Dispatcher) checkRequirements(file, dir string) (Response, bool) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	confined, err := d.guard.Confine(path, pathguard.RequireParent)
	if err != nil {
		return errResponse(pathKind(err), "%v", err), false
	}
	if d.wl.Unrestricted() {
		return Response{}, true
	}
	if err := d.wl.CheckRequirementsFile(confined); err != nil {
		if errors.Is(err, whitelist.ErrNotAllowed) {
			return errResponse(KindWhitelistViolation, "%v", err), false
		}
		return errResponse(KindPathNotFound, "%v", err), false
	}
	return Response{}, true
}

// managerFor picks the manager for a request: explicit choice when given,
// otherwise uv for the uv-only tools and the configured Python default
// for the rest.
func (d *Dispatcher) managerFor(tool string, req *ToolRequest) (manager.ID, error) {
	if req.Manager != "" {
		return manager.ParseID(req.Manager)
	}
	switch tool {
	case command.ToolAdd, command.ToolCreateVenv:
		return manager.Uv, nil
	default:
		if d.cfg.UseUV {
			return manager.Uv, nil
		}
		return manager.Pip, nil
	}
}

// autoInit initializes the project before install/add when the manager's
// manifest is missing, mirroring what the managers would otherwise refuse
// to do. An init failure aborts the request.
func (d *Dispatcher) autoInit(ctx context.Context, log zerolog.Logger, tool string, mgr manager.ID, exe, dir string) (Response, bool) {
	if tool != command.ToolInstall && tool != command.ToolAdd {
		return Response{}, true
	}
	manifest, ok := command.ManifestFile(mgr)
	if !ok {
		return Response{}, true
	}
	if _, err := os.Stat(filepath.Join(dir, manifest)); err == nil {
		return Response{}, true
	}

	log.Info().Str("manifest", manifest).Msg("no project manifest, initializing first")
	initCmd, err := command.Build(command.ToolInit, command.Input{Manager: mgr, Exe: exe, Dir: dir}, d.cfg)
	if err != nil {
		return errResponse(KindCommandBuildError, "%v", err), false
	}
	result, err := d.sup.Run(ctx, append([]string{initCmd.Exe}, initCmd.Args...), initCmd.Dir, initCmd.Env, initCmd.Timeout)
	if err != nil {
		return errResponse(KindExecutionFailed, "project init: %v", err), false
	}
	if result.TimedOut {
		return errResponse(KindExecutionTimeout, "project init timed out after %s", initCmd.Timeout), false
	}
	if result.ExitCode != 0 {
		return errResponse(KindExecutionFailed, "project init failed (exit %d): %s", result.ExitCode, result.Stderr), false
	}
	return Response{}, true
}

// normalize maps an execution result onto the uniform response shape.
func (d *Dispatcher) normalize(tool string, req *ToolRequest, dir string, result *executor.Result) Response {
	if result.TimedOut {
		return errResponse(KindExecutionTimeout, "command timed out; partial stderr: %s", result.Stderr)
	}
	if result.ExitCode != 0 {
		resp := errResponse(KindExecutionFailed, "command failed (exit %d): %s", result.ExitCode, result.Stderr)
		resp.ExitCode = result.ExitCode
		return resp
	}

	// The manager can report success without producing the environment.
	if tool == command.ToolCreateVenv {
		name := req.VenvName
		if name == "" {
			name = d.cfg.VenvName
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return errResponse(KindExecutionFailed, "venv creation reported success but %s was not created", name)
		}
	}

	return okResponse(result.Stdout, result.Truncated, result.Duration.Milliseconds())
}

// existenceMode returns the path-existence requirement per tool: init and
// create_venv may create their target, everything else operates on an
// existing project directory.
func existenceMode(tool string) pathguard.Mode {
	switch tool {
	case command.ToolInit, command.ToolCreateVenv:
		return pathguard.RequireParent
	default:
		return pathguard.RequireDir
	}
}

// pathKind maps path guard sentinels to response kinds.
func pathKind(err error) string {
	if errors.Is(err, pathguard.ErrPathTraversal) {
		return KindPathTraversal
	}
	if errors.Is(err, pathguard.ErrPathNotFound) {
		return KindPathNotFound
	}
	return KindPathTraversal
}

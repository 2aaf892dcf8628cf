// Package main wires the package-manager MCP server: configuration from
// the environment, validation pipeline, subprocess supervision, and the
// stdio transport.
package main

import (
	"fmt"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/tobyash86/pkgmgr-mcp/internal/config"
	"github.com/tobyash86/pkgmgr-mcp/internal/dispatcher"
	"github.com/tobyash86/pkgmgr-mcp/internal/executor"
	"github.com/tobyash86/pkgmgr-mcp/internal/manager"
	"github.com/tobyash86/pkgmgr-mcp/internal/pathguard"
	"github.com/tobyash86/pkgmgr-mcp/internal/server"
	"github.com/tobyash86/pkgmgr-mcp/internal/whitelist"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	guard, err := pathguard.New(cfg.ProjectDir)
	if err != nil {
		return fmt.Errorf("project root: %w", err)
	}

	sup := executor.NewSupervisor(
		executor.NewOSProcessFactory(),
		cfg.MaxInstallSize,
		executor.DefaultGracePeriod,
		log,
	)

	d := dispatcher.New(
		cfg,
		guard,
		whitelist.New(cfg.AllowedPackages),
		manager.NewResolver(cfg),
		sup,
		log,
	)

	log.Info().
		Str("version", version).
		Str("project_dir", guard.Root()).
		Int("max_concurrent", cfg.MaxConcurrent).
		Bool("use_uv", cfg.UseUV).
		Msg("starting server")

	// Blocks until stdin closes or the transport fails.
	if err := mcpserver.ServeStdio(server.New(d, version)); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// newLogger builds the process logger. Output goes to stderr: stdout
// carries the MCP transport and must stay clean.
func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

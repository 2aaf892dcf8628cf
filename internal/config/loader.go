package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names read by Load.
const (
	EnvAllowedPackages  = "ALLOWED_PACKAGES"
	EnvMaxInstallSize   = "MAX_INSTALL_SIZE"
	EnvProjectDir       = "PROJECT_DIR"
	EnvInstallTimeout   = "INSTALL_TIMEOUT"
	EnvUninstallTimeout = "UNINSTALL_TIMEOUT"
	EnvInitTimeout      = "INIT_TIMEOUT"
	EnvVenvTimeout      = "VENV_TIMEOUT"
	EnvNpmPath          = "NPM_PATH"
	EnvUvPath           = "UV_PATH"
	EnvPipPath          = "PIP_PATH"
	EnvVenvName         = "VENV_NAME"
	EnvUseUV            = "USE_UV"
	EnvMaxConcurrent    = "MAX_CONCURRENT"
	EnvLogLevel         = "LOG_LEVEL"
)

// Loader reads configuration from the environment with injected lookup
// for testability.
type Loader struct {
	getenv func(string) string
}

// NewLoader creates a production Loader backed by the process environment.
func NewLoader() *Loader {
	return &Loader{getenv: os.Getenv}
}

// NewLoaderWithEnv creates a Loader with a custom environment lookup (for testing).
func NewLoaderWithEnv(getenv func(string) string) *Loader {
	return &Loader{getenv: getenv}
}

// Load builds a Config from defaults overridden by environment variables,
// then validates the result. Timeout variables are in milliseconds.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	cfg.ProjectDir = l.getenv(EnvProjectDir)

	if v := l.getenv(EnvAllowedPackages); v != "" {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.AllowedPackages = append(cfg.AllowedPackages, name)
			}
		}
	}

	var err error
	if cfg.MaxInstallSize, err = l.int64Or(EnvMaxInstallSize, cfg.MaxInstallSize); err != nil {
		return nil, err
	}
	if cfg.InstallTimeout, err = l.timeoutOr(EnvInstallTimeout, cfg.InstallTimeout); err != nil {
		return nil, err
	}
	if cfg.UninstallTimeout, err = l.timeoutOr(EnvUninstallTimeout, cfg.UninstallTimeout); err != nil {
		return nil, err
	}
	if cfg.InitTimeout, err = l.timeoutOr(EnvInitTimeout, cfg.InitTimeout); err != nil {
		return nil, err
	}
	if cfg.VenvTimeout, err = l.timeoutOr(EnvVenvTimeout, cfg.VenvTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent, err = l.intOr(EnvMaxConcurrent, cfg.MaxConcurrent); err != nil {
		return nil, err
	}
	if cfg.UseUV, err = l.boolOr(EnvUseUV, cfg.UseUV); err != nil {
		return nil, err
	}

	cfg.NpmPath = l.getenv(EnvNpmPath)
	cfg.UvPath = l.getenv(EnvUvPath)
	cfg.PipPath = l.getenv(EnvPipPath)

	if v := l.getenv(EnvVenvName); v != "" {
		cfg.VenvName = v
	}
	if v := l.getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) int64Or(key string, def int64) (int64, error) {
	v := l.getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func (l *Loader) intOr(key string, def int) (int, error) {
	n, err := l.int64Or(key, int64(def))
	return int(n), err
}

// timeoutOr parses a millisecond value into a duration.
func (l *Loader) timeoutOr(key string, def time.Duration) (time.Duration, error) {
	ms, err := l.int64Or(key, def.Milliseconds())
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func (l *Loader) boolOr(key string, def bool) (bool, error) {
	v := l.getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, v, err)
	}
	return b, nil
}

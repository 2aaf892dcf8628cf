package config

import "time"

// Config holds all server configuration values.
// It is loaded once at startup from the environment and never mutated
// afterwards; every in-flight request reads the same instance.
type Config struct {
	// ProjectDir is the confinement root. No operation may touch a path
	// outside it.
	ProjectDir string

	// AllowedPackages is the install whitelist. Empty means unrestricted;
	// a "*" entry also means unrestricted.
	AllowedPackages []string

	// MaxInstallSize caps the bytes captured from each output stream of a
	// package-manager subprocess.
	MaxInstallSize int64

	// Per-operation subprocess timeouts.
	InstallTimeout   time.Duration
	UninstallTimeout time.Duration
	InitTimeout      time.Duration
	VenvTimeout      time.Duration

	// Explicit executable overrides. Empty means auto-detect.
	NpmPath string
	UvPath  string
	PipPath string

	// VenvName is the default virtual environment directory name.
	VenvName string

	// UseUV selects uv over pip when a Python-side request omits the
	// manager.
	UseUV bool

	// MaxConcurrent bounds the number of package-manager subprocesses
	// running at once. Requests beyond the limit are rejected.
	MaxConcurrent int

	LogLevel string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxInstallSize:   50 * 1000 * 1000,
		InstallTimeout:   300 * time.Second,
		UninstallTimeout: 60 * time.Second,
		InitTimeout:      30 * time.Second,
		VenvTimeout:      60 * time.Second,
		VenvName:         ".venv",
		UseUV:            true,
		MaxConcurrent:    4,
		LogLevel:         "info",
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envMap returns a getenv func backed by a map, for loader tests.
func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_DefaultsWithProjectDir(t *testing.T) {
	loader := NewLoaderWithEnv(envMap(map[string]string{
		EnvProjectDir: "/srv/projects",
	}))

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "/srv/projects", cfg.ProjectDir)
	assert.Nil(t, cfg.AllowedPackages)
	assert.Equal(t, int64(50_000_000), cfg.MaxInstallSize)
	assert.Equal(t, 300*time.Second, cfg.InstallTimeout)
	assert.Equal(t, 60*time.Second, cfg.UninstallTimeout)
	assert.Equal(t, 30*time.Second, cfg.InitTimeout)
	assert.Equal(t, ".venv", cfg.VenvName)
	assert.True(t, cfg.UseUV)
	assert.Equal(t, 4, cfg.MaxConcurrent)
}

func TestLoad_FullOverride(t *testing.T) {
	loader := NewLoaderWithEnv(envMap(map[string]string{
		EnvProjectDir:       "/work",
		EnvAllowedPackages:  "requests, pandas ,numpy",
		EnvMaxInstallSize:   "1000",
		EnvInstallTimeout:   "5000",
		EnvUninstallTimeout: "2000",
		EnvInitTimeout:      "1000",
		EnvVenvTimeout:      "3000",
		EnvNpmPath:          "/opt/node/npm",
		EnvUvPath:           "/opt/uv/uv",
		EnvPipPath:          "/usr/bin/pip3",
		EnvVenvName:         "env",
		EnvUseUV:            "false",
		EnvMaxConcurrent:    "2",
		EnvLogLevel:         "DEBUG",
	}))

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "pandas", "numpy"}, cfg.AllowedPackages)
	assert.Equal(t, int64(1000), cfg.MaxInstallSize)
	assert.Equal(t, 5*time.Second, cfg.InstallTimeout)
	assert.Equal(t, 2*time.Second, cfg.UninstallTimeout)
	assert.Equal(t, 1*time.Second, cfg.InitTimeout)
	assert.Equal(t, 3*time.Second, cfg.VenvTimeout)
	assert.Equal(t, "/opt/node/npm", cfg.NpmPath)
	assert.Equal(t, "/opt/uv/uv", cfg.UvPath)
	assert.Equal(t, "/usr/bin/pip3", cfg.PipPath)
	assert.Equal(t, "env", cfg.VenvName)
	assert.False(t, cfg.UseUV)
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingProjectDir_Fails(t *testing.T) {
	loader := NewLoaderWithEnv(envMap(map[string]string{}))

	_, err := loader.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROJECT_DIR")
}

func TestLoad_InvalidInteger_Fails(t *testing.T) {
	loader := NewLoaderWithEnv(envMap(map[string]string{
		EnvProjectDir:     "/work",
		EnvInstallTimeout: "five minutes",
	}))

	_, err := loader.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvInstallTimeout)
}

func TestLoad_InvalidBool_Fails(t *testing.T) {
	loader := NewLoaderWithEnv(envMap(map[string]string{
		EnvProjectDir: "/work",
		EnvUseUV:      "maybe",
	}))

	_, err := loader.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvUseUV)
}

func TestLoad_ZeroTimeout_FailsValidation(t *testing.T) {
	loader := NewLoaderWithEnv(envMap(map[string]string{
		EnvProjectDir:  "/work",
		EnvInitTimeout: "0",
	}))

	_, err := loader.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INIT_TIMEOUT")
}

func TestLoad_EmptyWhitelistEntriesSkipped(t *testing.T) {
	loader := NewLoaderWithEnv(envMap(map[string]string{
		EnvProjectDir:      "/work",
		EnvAllowedPackages: "requests,, ,pandas",
	}))

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "pandas"}, cfg.AllowedPackages)
}

package config

import "fmt"

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	if c.ProjectDir == "" {
		errs = append(errs, "PROJECT_DIR must be set")
	}
	if c.MaxInstallSize < 1 {
		errs = append(errs, "MAX_INSTALL_SIZE must be >= 1")
	}
	if c.InstallTimeout <= 0 {
		errs = append(errs, "INSTALL_TIMEOUT must be > 0")
	}
	if c.UninstallTimeout <= 0 {
		errs = append(errs, "UNINSTALL_TIMEOUT must be > 0")
	}
	if c.InitTimeout <= 0 {
		errs = append(errs, "INIT_TIMEOUT must be > 0")
	}
	if c.VenvTimeout <= 0 {
		errs = append(errs, "VENV_TIMEOUT must be > 0")
	}
	if c.VenvName == "" {
		errs = append(errs, "VENV_NAME must not be empty")
	}
	if c.MaxConcurrent < 1 {
		errs = append(errs, "MAX_CONCURRENT must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}
	return nil
}

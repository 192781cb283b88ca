package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
// The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the search locations
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first halo.yaml found in the working
// directory or ConfigDir, or "" if there is none.
func findConfigFile() string {
	for _, dir := range []string{".", ConfigDir()} {
		path := filepath.Join(dir, "halo.yaml")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for icehalo
// (XDG_CONFIG_HOME, Application Support or AppData depending on the OS).
// If the OS reports none, a directory under the working directory is used.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		if wd, werr := os.Getwd(); werr == nil {
			return filepath.Join(wd, ".icehalo")
		}
		return ".icehalo"
	}
	return filepath.Join(base, "icehalo")
}

// loadFromFile loads config from a YAML file, merging with existing values.
// A crystals list in the file replaces the default list.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Package config loads the data loader's YAML configuration file: the
// default install directory, the metrics endpoint, and logging verbosity.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete on-disk configuration structure.
type Config struct {
	Loader struct {
		// InstallDir is prefixed to a request's InstallLocation when the
		// request supplies a relative path.
		InstallDir string `yaml:"install_dir"`
	} `yaml:"loader"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no config file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Loader.InstallDir = "var/dataloader"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9091
	cfg.Log.Level = "info"
	return cfg
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

// Package config loads the optional YAML config file the CLI reads its
// defaults from. Command line flags always win over file values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI defaults.
type Config struct {
	// RootDir is the storage manager root to inspect.
	RootDir string `yaml:"root_dir"`

	// WALDirs lists additional WAL root directories outside RootDir.
	WALDirs []string `yaml:"wal_dirs"`

	// Detail is the default detail level: ids, headers or full.
	Detail string `yaml:"detail"`

	// LogLevel is the hclog level name for diagnostics.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Detail:   "ids",
		LogLevel: "info",
	}
}

// Load reads path and unmarshals it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, nil
}

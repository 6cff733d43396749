// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/stick/internal/config"

// Config is the engine configuration: hardware limits, parallelism,
// logging and prechecks.
type Config = config.Config

// DefaultConfig returns the configuration for current hardware.
func DefaultConfig() *Config { return config.Default() }

// LegacyConfig returns the configuration for the previous hardware
// generation.
func LegacyConfig() *Config { return config.Legacy() }

// LoadConfig reads a YAML configuration file and applies STICK_*
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return config.FromEnv(cfg)
}

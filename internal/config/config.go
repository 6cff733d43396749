// Package config holds the immutable engine configuration: hardware limits,
// parallelism and logging settings.
//
// A Config is built once at startup (Default, Load, FromEnv) and then shared
// by pointer. Nothing in the engine mutates it.
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/stick/internal/parallel"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/stick"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables read by FromEnv.
const (
	EnvLogLevel   = "STICK_LOGLEVEL"
	EnvPrecheck   = "STICK_ENABLE_PRECHECK"
	EnvMaxWorkers = "STICK_MAX_WORKERS"
)

// Limits are the per-axis and total size maxima of a transformed tensor.
type Limits struct {
	MaxDim4       int    `yaml:"max_dim4"`
	MaxDim3       int    `yaml:"max_dim3"`
	MaxDim2       int    `yaml:"max_dim2"`
	MaxDim1       int    `yaml:"max_dim1"`
	MaxTensorSize uint64 `yaml:"max_tensor_size"`
}

// MaxDim returns the maximum for axis 1..4 (dim1 is innermost).
func (l Limits) MaxDim(axis int) int {
	switch axis {
	case 4:
		return l.MaxDim4
	case 3:
		return l.MaxDim3
	case 2:
		return l.MaxDim2
	case 1:
		return l.MaxDim1
	default:
		return 0
	}
}

// MaxConcatDim1 is the largest logical dim1 that still fits when gates
// stick-padded copies are concatenated along dim1.
func (l Limits) MaxConcatDim1(gates int) int {
	if gates < 1 {
		gates = 1
	}
	return l.MaxDim1 / gates / 64 * 64
}

// Validate checks that every limit is positive.
func (l Limits) Validate() error {
	for axis := 1; axis <= 4; axis++ {
		if l.MaxDim(axis) <= 0 {
			return status.Newf(status.ErrInvalidArgument, "max_dim%d must be > 0, got %d", axis, l.MaxDim(axis))
		}
	}
	if l.MaxTensorSize < stick.PageSize {
		return status.Newf(status.ErrInvalidArgument, "max_tensor_size must be at least %d, got %d", stick.PageSize, l.MaxTensorSize)
	}
	return nil
}

// Config is the complete engine configuration.
type Config struct {
	Limits   Limits          `yaml:"limits"`
	Parallel parallel.Config `yaml:"parallel"`
	LogLevel Level           `yaml:"log_level"`
	Precheck bool            `yaml:"precheck"`
}

// DefaultLimits returns the maxima of current hardware.
func DefaultLimits() Limits {
	return Limits{
		MaxDim4:       32768,
		MaxDim3:       32768,
		MaxDim2:       1048576,
		MaxDim1:       2097152,
		MaxTensorSize: 1 << 32,
	}
}

// LegacyLimits returns the maxima of older hardware, where every axis is
// capped at 32768.
func LegacyLimits() Limits {
	return Limits{
		MaxDim4:       32768,
		MaxDim3:       32768,
		MaxDim2:       32768,
		MaxDim1:       32768,
		MaxTensorSize: 1 << 32,
	}
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Limits:   DefaultLimits(),
		Parallel: parallel.DefaultConfig(),
		LogLevel: LevelWarn,
	}
}

// Legacy returns the default configuration with LegacyLimits.
func Legacy() *Config {
	cfg := Default()
	cfg.Limits = LegacyLimits()
	return cfg
}

// Load reads a YAML configuration file. Fields missing from the file keep
// their Default values; unknown fields are rejected.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: path is supplied by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, status.Wrapf(err, status.ErrInvalidArgument, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	if c.Parallel.NumWorkers < 0 {
		return status.Newf(status.ErrInvalidArgument, "num_workers must be >= 0, got %d", c.Parallel.NumWorkers)
	}
	return nil
}

// FromEnv returns a copy of base with environment overrides applied.
func FromEnv(base *Config) (*Config, error) {
	cfg := *base

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		lvl, err := ParseLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = lvl
	}
	if v, ok := os.LookupEnv(EnvPrecheck); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, status.Wrapf(err, status.ErrInvalidArgument, "%s", EnvPrecheck)
		}
		cfg.Precheck = b
	}
	if v, ok := os.LookupEnv(EnvMaxWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			return nil, status.Newf(status.ErrInvalidArgument, "%s must be a positive integer, got %q", EnvMaxWorkers, v)
		}
		cfg.Parallel.NumWorkers = n
		cfg.Parallel.Enabled = n > 1
	}
	return &cfg, nil
}

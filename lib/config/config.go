// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Warden components.
//
// Configuration is loaded from a single YAML file specified by the
// WARDEN_CONFIG environment variable or an explicit --config flag.
// There are no fallbacks or automatic discovery; this keeps
// configuration deterministic and auditable. Command-line flags may
// override individual values after loading (the daemon does this with
// pflag), but the file is the base.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wardenhq/warden/lib/statuslog"
)

// Config is the master configuration for a Warden process.
type Config struct {
	// Logging configures the status-log layer.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig carries the status-log layer's configuration inputs.
type LoggingConfig struct {
	// Disabled globally disables ERROR/INFO logging: nothing is
	// relayed and the convenience dispatch helpers are no-ops.
	// Despite being configurable it is only read at load.
	Disabled bool `yaml:"disabled"`

	// Backends is the comma-separated list of active backend names,
	// in declaration order. The first name is elected primary.
	// Default: "filesystem".
	Backends string `yaml:"backends"`

	// SecondaryStatusOnly restricts non-primary backends to status
	// logs: string and snapshot dispatches to them are refused.
	SecondaryStatusOnly bool `yaml:"secondary_status_only"`

	// SynchronousRelay makes per-message relays run inline on the
	// emitting goroutine. Intended for testing status logging; the
	// default defers relays to background goroutines.
	SynchronousRelay bool `yaml:"synchronous_relay"`

	// MinSeverity is an explicit capture threshold ("info",
	// "warning", "error", "fatal"). Empty means derive from Verbose
	// and the tool mode.
	MinSeverity string `yaml:"min_severity"`

	// Verbose enables informational messages regardless of mode.
	Verbose bool `yaml:"verbose"`
}

// Default returns the default configuration. The defaults give every
// field a sensible value so a missing file section is usable as-is.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Backends: "filesystem",
		},
	}
}

// Load loads configuration from the file named by the WARDEN_CONFIG
// environment variable. Fails if the variable is not set.
func Load() (*Config, error) {
	path := os.Getenv("WARDEN_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("WARDEN_CONFIG environment variable not set; " +
			"set it to the path of your warden.yaml config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if _, err := cfg.Logging.MinSeverityValue(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// MinSeverityValue parses the MinSeverity field. Callers that need to
// know whether an explicit threshold was configured check for the
// empty string first.
func (l *LoggingConfig) MinSeverityValue() (statuslog.Severity, error) {
	if l.MinSeverity == "" {
		return statuslog.SeverityInfo, nil
	}
	severity, err := statuslog.ParseSeverity(l.MinSeverity)
	if err != nil {
		return statuslog.SeverityInfo, fmt.Errorf("min_severity: %w", err)
	}
	return severity, nil
}

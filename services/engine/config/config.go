// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the engine configuration.
//
// Configuration comes from a YAML file with environment variable
// overrides on top, read once at startup. Missing file is not an error;
// defaults cover local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variable overrides.
const (
	// EnvPort overrides server.port.
	EnvPort = "QSUDOKU_PORT"

	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "QSUDOKU_LOG_LEVEL"

	// EnvDifficulty overrides session.default_difficulty.
	EnvDifficulty = "QSUDOKU_DIFFICULTY"
)

// Config is the engine's full configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	// Port the HTTP server listens on.
	Port int `yaml:"port" validate:"gte=1,lte=65535"`

	// Mode is the gin mode: debug, release, or test.
	Mode string `yaml:"mode" validate:"oneof=debug release test"`
}

// SessionConfig configures board sessions.
type SessionConfig struct {
	// DefaultDifficulty is used for generate-if-absent boards and
	// resets without an explicit difficulty.
	DefaultDifficulty string `yaml:"default_difficulty" validate:"oneof=easy medium hard"`

	// IdleTTLSeconds is how long an untouched session survives.
	// Zero disables the janitor.
	IdleTTLSeconds int `yaml:"idle_ttl_seconds" validate:"gte=0"`

	// SweepIntervalSeconds is how often the janitor runs.
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" validate:"gte=1"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// JSON switches stderr output to JSON format.
	JSON bool `yaml:"json"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port: 8000,
			Mode: "release",
		},
		Session: SessionConfig{
			DefaultDifficulty:    "medium",
			IdleTTLSeconds:       3600,
			SweepIntervalSeconds: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
	}
}

// Load reads the YAML file at path (if it exists), applies environment
// overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Defaults apply.
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IdleTTL returns the session TTL as a duration.
func (c SessionConfig) IdleTTL() time.Duration {
	return time.Duration(c.IdleTTLSeconds) * time.Second
}

// SweepInterval returns the janitor interval as a duration.
func (c SessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv(EnvPort); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if difficulty := os.Getenv(EnvDifficulty); difficulty != "" {
		cfg.Session.DefaultDifficulty = difficulty
	}
}

// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go/v4"
)

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Parse HJSON to intermediate map
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	// Convert to JSON and unmarshal to struct (for type safety)
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with default values applied.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// FindConfig searches for a config file in the current directory.
// It looks for runfeed.hjson first, then runfeed.json.
func (l *Loader) FindConfig() (string, error) {
	candidates := []string{
		"runfeed.hjson",
		"runfeed.json",
	}

	for _, name := range candidates {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("config file not found (looked for runfeed.hjson, runfeed.json)")
}

// Default returns a config with all defaults applied and no file read.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://127.0.0.1:8080"
	}
	if cfg.Server.Timeout == "" {
		cfg.Server.Timeout = "30s"
	}

	// Display defaults
	if cfg.Display.Mode == "" {
		cfg.Display.Mode = "full"
	}
	if cfg.Display.PushInterval == "" {
		cfg.Display.PushInterval = "80ms"
	}
	if cfg.Display.YieldInterval == "" {
		cfg.Display.YieldInterval = "50ms"
	}

	// Dedup defaults
	if cfg.Dedup.SeenCap == 0 {
		cfg.Dedup.SeenCap = 2000
	}

	// Replay defaults
	if cfg.Replay.Limit == 0 {
		cfg.Replay.Limit = 200
	}
	if cfg.Replay.MaxRounds == 0 {
		cfg.Replay.MaxRounds = 4
	}

	// Resume defaults
	if cfg.Resume.RecentTTL == "" {
		cfg.Resume.RecentTTL = "20s"
	}
	if cfg.Resume.RecentCap == 0 {
		cfg.Resume.RecentCap = 32
	}
}

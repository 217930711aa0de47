// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON configuration loading for runfeed.
package config

import (
	"time"
)

// Config is the root configuration structure for runfeed.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Display DisplayConfig `json:"display"`
	Dedup   DedupConfig   `json:"dedup"`
	Replay  ReplayConfig  `json:"replay"`
	Resume  ResumeConfig  `json:"resume"`
	Relay   RelayConfig   `json:"relay"`
}

// ServerConfig points at the run service endpoint.
type ServerConfig struct {
	BaseURL string `json:"base_url"`
	Timeout string `json:"timeout"` // Request timeout for non-streaming calls (e.g. "30s")
}

// DisplayConfig controls how streamed output is rendered.
type DisplayConfig struct {
	Mode          string `json:"mode"`           // "full" or "status"
	PushInterval  string `json:"push_interval"`  // Minimum gap between display pushes (e.g. "80ms")
	YieldInterval string `json:"yield_interval"` // Minimum gap between scheduler yields (e.g. "50ms")
}

// DedupConfig sizes the seen-event window.
type DedupConfig struct {
	SeenCap int `json:"seen_cap"`
}

// ReplayConfig bounds catch-up fetches after a dropped stream.
type ReplayConfig struct {
	Limit     int `json:"limit"`
	MaxRounds int `json:"max_rounds"`
}

// ResumeConfig tunes prompt dedup for the resume state machine.
type ResumeConfig struct {
	RecentTTL string `json:"recent_ttl"` // How long a handled prompt stays suppressed (e.g. "20s")
	RecentCap int    `json:"recent_cap"`
}

// RelayConfig configures the optional cross-surface relay connection.
type RelayConfig struct {
	Enable  bool   `json:"enable"`
	URL     string `json:"url"`
	Surface string `json:"surface"` // Stable surface ID; generated when empty
}

// Duration parsing helpers. Invalid or empty strings fall back to the
// given default so a half-edited config doesn't wedge the client.

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ServerTimeout returns the parsed request timeout.
func (c *Config) ServerTimeout() time.Duration {
	return parseDuration(c.Server.Timeout, 30*time.Second)
}

// PushInterval returns the parsed display push interval.
func (c *Config) PushInterval() time.Duration {
	return parseDuration(c.Display.PushInterval, 80*time.Millisecond)
}

// YieldInterval returns the parsed scheduler yield interval.
func (c *Config) YieldInterval() time.Duration {
	return parseDuration(c.Display.YieldInterval, 50*time.Millisecond)
}

// RecentTTL returns the parsed prompt suppression window.
func (c *Config) RecentTTL() time.Duration {
	return parseDuration(c.Resume.RecentTTL, 20*time.Second)
}

// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateServer(cfg, errs)
	v.validateDisplay(cfg, errs)
	v.validateBounds(cfg, errs)
	v.validateDurations(cfg, errs)
	v.validateRelay(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateServer(cfg *Config, errs *ValidationError) {
	if cfg.Server.BaseURL == "" {
		errs.Add("server.base_url", "is required")
		return
	}
	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs.Add("server.base_url", "must be an absolute URL")
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add("server.base_url", "scheme must be http or https")
	}
}

func (v *Validator) validateDisplay(cfg *Config, errs *ValidationError) {
	switch cfg.Display.Mode {
	case "", "full", "status":
	default:
		errs.Add("display.mode", "must be 'full' or 'status'")
	}
}

func (v *Validator) validateBounds(cfg *Config, errs *ValidationError) {
	if cfg.Dedup.SeenCap < 0 {
		errs.Add("dedup.seen_cap", "must not be negative")
	}
	if cfg.Replay.Limit < 0 {
		errs.Add("replay.limit", "must not be negative")
	}
	if cfg.Replay.MaxRounds < 0 {
		errs.Add("replay.max_rounds", "must not be negative")
	}
	if cfg.Resume.RecentCap < 0 {
		errs.Add("resume.recent_cap", "must not be negative")
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	fields := []struct {
		name  string
		value string
	}{
		{"server.timeout", cfg.Server.Timeout},
		{"display.push_interval", cfg.Display.PushInterval},
		{"display.yield_interval", cfg.Display.YieldInterval},
		{"resume.recent_ttl", cfg.Resume.RecentTTL},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if _, err := time.ParseDuration(f.value); err != nil {
			errs.Add(f.name, fmt.Sprintf("invalid duration %q", f.value))
		}
	}
}

func (v *Validator) validateRelay(cfg *Config, errs *ValidationError) {
	if !cfg.Relay.Enable {
		return
	}
	if cfg.Relay.URL == "" {
		errs.Add("relay.url", "is required when relay is enabled")
		return
	}
	u, err := url.Parse(cfg.Relay.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs.Add("relay.url", "must be an absolute URL")
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errs.Add("relay.url", "scheme must be ws or wss")
	}
}

// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidDefaults(t *testing.T) {
	err := NewValidator().Validate(Default())
	assert.NoError(t, err)
}

func TestValidator_MissingBaseURL(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = ""

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.base_url")
}

func TestValidator_BadScheme(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = "ftp://example.com"

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme must be http or https")
}

func TestValidator_BadDisplayMode(t *testing.T) {
	cfg := Default()
	cfg.Display.Mode = "verbose"

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display.mode")
}

func TestValidator_BadDuration(t *testing.T) {
	cfg := Default()
	cfg.Display.PushInterval = "80"

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display.push_interval")
}

func TestValidator_NegativeBounds(t *testing.T) {
	cfg := Default()
	cfg.Dedup.SeenCap = -1
	cfg.Replay.MaxRounds = -2

	err := NewValidator().Validate(cfg)
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Len(t, verr.Errors, 2)
}

func TestValidator_RelayRequiresURL(t *testing.T) {
	cfg := Default()
	cfg.Relay.Enable = true

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay.url")

	cfg.Relay.URL = "https://relay.example.com"
	err = NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme must be ws or wss")

	cfg.Relay.URL = "wss://relay.example.com/feed"
	assert.NoError(t, NewValidator().Validate(cfg))
}

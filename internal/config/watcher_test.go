// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runfeed.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{ display: { mode: "full" } }`), 0o644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config) {
		reloaded <- cfg
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{ display: { mode: "status" } }`), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "status", cfg.Display.Mode)
		// Defaults applied on reload
		assert.Equal(t, 2000, cfg.Dedup.SeenCap)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_RejectsInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runfeed.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config) {
		reloaded <- cfg
	})
	require.NoError(t, err)
	defer w.Close()

	// Invalid mode fails validation and must not reach the callback.
	require.NoError(t, os.WriteFile(path, []byte(`{ display: { mode: "loud" } }`), 0o644))

	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload with mode %q", cfg.Display.Mode)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runfeed.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config) {
		reloaded <- cfg
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.hjson"), []byte(`{}`), 0o644))

	select {
	case <-reloaded:
		t.Fatal("reload fired for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runfeed.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	w, err := NewWatcher(path, 20*time.Millisecond, func(*Config) {})
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

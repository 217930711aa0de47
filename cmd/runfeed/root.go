// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wingedpig/runfeed/internal/config"
	"github.com/wingedpig/runfeed/pkg/client"
)

var (
	version = "0.90"

	configPath  string
	serverURL   string
	displayMode string
	relayURL    string
	surfaceID   string
)

var rootCmd = &cobra.Command{
	Use:   "runfeed",
	Short: "Follow, resume and replay task runs over the event stream",
	Long: `runfeed consumes the run service's server-sent event stream with
duplicate suppression, catch-up replay after dropped connections, and an
interactive answer flow for runs that pause waiting on input.

Quick start:
  runfeed follow <task-id> "do the thing"   # start a run and follow it
  runfeed resume <run-id> "yes"             # answer a paused run
  runfeed replay <run-id>                   # re-fetch a run's event history`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to runfeed.hjson (default: search current directory)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Run service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&displayMode, "mode", "", "Display mode: full or status (overrides config)")
	rootCmd.PersistentFlags().StringVar(&relayURL, "relay", "", "Relay websocket URL; enables cross-surface relay (overrides config)")
	rootCmd.PersistentFlags().StringVar(&surfaceID, "surface", "", "Stable surface id on the relay (overrides config)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves configuration: file if present, defaults otherwise,
// then flag overrides, then validation. The returned path is empty when
// no config file was involved.
func loadConfig(ctx context.Context) (*config.Config, string, error) {
	loader := config.NewLoader()

	path := configPath
	if path == "" {
		if found, err := loader.FindConfig(); err == nil {
			path = found
		}
	}

	var cfg *config.Config
	if path != "" {
		loaded, err := loader.LoadWithDefaults(ctx, path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if serverURL != "" {
		cfg.Server.BaseURL = strings.TrimSuffix(serverURL, "/")
	}
	if displayMode != "" {
		cfg.Display.Mode = displayMode
	}
	if relayURL != "" {
		cfg.Relay.Enable = true
		cfg.Relay.URL = relayURL
	}
	if surfaceID != "" {
		cfg.Relay.Surface = surfaceID
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

// newClient builds the API client from config.
func newClient(cfg *config.Config) *client.Client {
	return client.New(cfg.Server.BaseURL, client.WithTimeout(cfg.ServerTimeout()))
}

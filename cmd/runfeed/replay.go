// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wingedpig/runfeed/internal/accum"
	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/replay"
	"github.com/wingedpig/runfeed/internal/resume"
	"github.com/wingedpig/runfeed/internal/stream"
)

var replayCmd = &cobra.Command{
	Use:   "replay <run-id>",
	Short: "Re-fetch and render a run's event history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, _, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		api := newClient(cfg)
		disp := newDisplay(os.Stdout)

		mode := accum.ModeFull
		push := disp.PushTranscript
		if cfg.Display.Mode == "status" {
			mode = accum.ModeStatus
			push = disp.PushStatus
		}
		acc := accum.New(accum.Config{
			Mode:          mode,
			PushInterval:  cfg.PushInterval(),
			YieldInterval: cfg.YieldInterval(),
			Push:          push,
		})

		machine := resume.New(resume.Config{
			Display:   disp,
			RecentTTL: cfg.RecentTTL(),
			RecentCap: cfg.Resume.RecentCap,
		})

		consumer := stream.New(stream.Config{
			Sink:    disp,
			Accum:   acc,
			Resume:  machine,
			SeenCap: cfg.Dedup.SeenCap,
		})

		recoverer := replay.New(replay.Config{
			Fetcher:   stream.ClientFetcher(api.Runs),
			Limit:     cfg.Replay.Limit,
			MaxRounds: cfg.Replay.MaxRounds,
		})

		recovered, err := recoverer.Recover(ctx, consumer.Tracker(), feed.ID(args[0]))
		acc.Flush()
		if err != nil {
			return err
		}
		disp.Note("%d events", recovered)
		if p := machine.Pending(); p != nil {
			disp.Note("run %s is paused; answer with: runfeed resume %s <answer>", p.RunID, p.RunID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

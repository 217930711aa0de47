// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/stream"
	"github.com/wingedpig/runfeed/pkg/client"
)

var (
	resumePromptToken string
	resumeSessionKey  string
)

var resumeCmd = &cobra.Command{
	Use:   "resume <run-id> <answer>",
	Short: "Answer a paused run and follow the continuation stream",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]
		return withApp(cmd.Context(), feed.ID(runID), func(ctx context.Context, a *app) error {
			return a.followLoop(ctx, stream.StartResume(a.api.Runs, client.ResumeRequest{
				RunID:       runID,
				Message:     args[1],
				PromptToken: resumePromptToken,
				SessionKey:  resumeSessionKey,
			}))
		})
	},
}

func init() {
	resumeCmd.Flags().StringVar(&resumePromptToken, "prompt-token", "", "Prompt token from the need_input event, if known")
	resumeCmd.Flags().StringVar(&resumeSessionKey, "session-key", "", "Session key from the need_input event, if known")
	rootCmd.AddCommand(resumeCmd)
}

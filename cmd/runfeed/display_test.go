// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wingedpig/runfeed/internal/feed"
)

func TestDisplay_BlockBetweenPushesKeepsSuffix(t *testing.T) {
	var buf bytes.Buffer
	d := newDisplay(&buf)

	d.PushTranscript("Checking the database. ")
	d.OnRunStatus(feed.Event{RunID: "11", Status: "running"})
	d.PushTranscript("Checking the database. Rows look fine. ")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "Checking the database. "))
	assert.Contains(t, out, "Rows look fine. ")
}

func TestDisplay_MultipleBlocksMidTranscript(t *testing.T) {
	var buf bytes.Buffer
	d := newDisplay(&buf)

	d.PushTranscript("First sentence. ")
	d.OnRunCreated(feed.Event{RunID: "11", TaskID: "7"})
	d.OnRunStatus(feed.Event{RunID: "11", Status: "running"})
	d.PushTranscript("First sentence. Second sentence. ")
	d.OnDone(feed.Event{RunID: "11"})
	d.PushTranscript("First sentence. Second sentence. Third. ")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "First sentence. "))
	assert.Equal(t, 1, strings.Count(out, "Second sentence. "))
	assert.Equal(t, 1, strings.Count(out, "Third. "))
}

func TestDisplay_TranscriptResetOnShrink(t *testing.T) {
	var buf bytes.Buffer
	d := newDisplay(&buf)

	d.PushTranscript("transcript of the first follow. ")
	d.PushTranscript("fresh start. ")

	assert.Contains(t, buf.String(), "fresh start. ")
}

func TestDisplay_BlockTerminatesStatusLine(t *testing.T) {
	var buf bytes.Buffer
	d := newDisplay(&buf)

	d.PushStatus("[search] ...")
	d.OnDone(feed.Event{RunID: "11"})

	assert.Contains(t, buf.String(), "\n")
}

func TestDisplay_BlockAfterCompleteLineAddsNoBlank(t *testing.T) {
	var buf bytes.Buffer
	d := newDisplay(&buf)

	d.PushTranscript("A full line.\n")
	d.OnDone(feed.Event{RunID: "11"})

	assert.NotContains(t, buf.String(), "\n\n")
}

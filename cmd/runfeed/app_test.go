// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/resume"
)

func TestReadAnswerRespectsInputGate(t *testing.T) {
	var buf bytes.Buffer
	a := &app{
		disp: newDisplay(&buf),
		in:   bufio.NewReader(strings.NewReader("2\n2\n")),
	}
	pending := resume.Pending{
		RunID:    "11",
		Question: "Proceed?",
		Choices:  []feed.Choice{{Label: "yes", Value: "yes"}, {Label: "no", Value: "no"}},
	}

	// Input disabled: decline without consuming stdin.
	answer, err := a.readAnswer(pending)
	require.NoError(t, err)
	assert.Empty(t, answer)

	a.disp.SetInputEnabled(true)
	answer, err = a.readAnswer(pending)
	require.NoError(t, err)
	assert.Equal(t, "no", answer)
}

func TestReadAnswerFreeText(t *testing.T) {
	var buf bytes.Buffer
	a := &app{
		disp: newDisplay(&buf),
		in:   bufio.NewReader(strings.NewReader("use the staging table\n")),
	}
	a.disp.SetInputEnabled(true)

	answer, err := a.readAnswer(resume.Pending{RunID: "11", Question: "Which table?"})
	require.NoError(t, err)
	assert.Equal(t, "use the staging table", answer)
}

func TestWatchConfigReportsUnavailable(t *testing.T) {
	var buf bytes.Buffer
	a := &app{disp: newDisplay(&buf)}

	stop := a.watchConfig(filepath.Join(t.TempDir(), "missing", "runfeed.hjson"))
	stop()

	assert.Contains(t, buf.String(), "config reload disabled")
}

func TestWatchConfigStartsQuietly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runfeed.hjson")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	var buf bytes.Buffer
	a := &app{disp: newDisplay(&buf)}

	stop := a.watchConfig(path)
	stop()

	assert.NotContains(t, buf.String(), "config reload disabled")
}

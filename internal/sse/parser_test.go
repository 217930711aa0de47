// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_SingleFrame(t *testing.T) {
	p := &Parser{}
	p.Feed([]byte("event: run_status\ndata: {\"status\":\"running\"}\n\n"))

	frame, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "run_status", frame.Event)
	assert.Equal(t, `{"status":"running"}`, frame.Data)

	_, ok = p.Next()
	assert.False(t, ok)
}

func TestParser_DefaultEventName(t *testing.T) {
	p := &Parser{}
	p.Feed([]byte("data: hello\n\n"))

	frame, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "message", frame.Event)
	assert.Equal(t, "hello", frame.Data)
}

func TestParser_CRLFSeparator(t *testing.T) {
	p := &Parser{}
	p.Feed([]byte("event: done\r\ndata: {}\r\n\r\nevent: next\r\ndata: x\r\n\r\n"))

	frame, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "done", frame.Event)
	assert.Equal(t, "{}", frame.Data)

	frame, ok = p.Next()
	require.True(t, ok)
	assert.Equal(t, "next", frame.Event)
}

func TestParser_MultiLineData(t *testing.T) {
	p := &Parser{}
	p.Feed([]byte("data: line one\ndata: line two\n\n"))

	frame, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "line one\nline two", frame.Data)
}

func TestParser_StripsAtMostOneLeadingSpace(t *testing.T) {
	// Two spaces after data: means the payload itself starts with a space,
	// which matters for code-block indentation.
	p := &Parser{}
	p.Feed([]byte("data:  indented\n\n"))

	frame, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, " indented", frame.Data)
}

func TestParser_IncrementalChunks(t *testing.T) {
	p := &Parser{}

	chunks := []string{"eve", "nt: plan\nda", "ta: first\nd", "ata: second\n", "\n"}
	for _, c := range chunks[:len(chunks)-1] {
		p.Feed([]byte(c))
		_, ok := p.Next()
		assert.False(t, ok, "no frame should complete before the blank line")
	}
	p.Feed([]byte(chunks[len(chunks)-1]))

	frame, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "plan", frame.Event)
	assert.Equal(t, "first\nsecond", frame.Data)
}

func TestParser_IgnoresCommentsAndUnknownFields(t *testing.T) {
	p := &Parser{}
	p.Feed([]byte(": keepalive\nid: 42\nretry: 1000\ndata: payload\n\n"))

	frame, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "payload", frame.Data)
}

func TestParser_Rest(t *testing.T) {
	p := &Parser{}
	p.Feed([]byte("data: partial"))

	_, ok := p.Next()
	assert.False(t, ok)
	assert.Equal(t, "data: partial", p.Rest())
}

func TestParser_MultipleFramesOneChunk(t *testing.T) {
	p := &Parser{}
	p.Feed([]byte("data: a\n\ndata: b\n\ndata: c\n\n"))

	var got []string
	for {
		frame, ok := p.Next()
		if !ok {
			break
		}
		got = append(got, frame.Data)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

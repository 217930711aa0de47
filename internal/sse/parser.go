// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package sse provides an incremental parser for text/event-stream bodies.
package sse

import (
	"bytes"
	"strings"
)

// DefaultEventName is used when a frame carries no event: line.
const DefaultEventName = "message"

// Frame is one complete server-sent event block: an event name plus the
// joined data payload.
type Frame struct {
	Event string
	Data  string
}

// Parser extracts frames from a byte stream that arrives in arbitrary
// chunks. Feed appends bytes; Next drains complete frames. The parser is
// purely a text transform and keeps no state beyond the unconsumed buffer,
// so it can be restarted mid-stream at any chunk boundary.
type Parser struct {
	buf []byte
}

// Feed appends a chunk of raw bytes to the parse buffer.
func (p *Parser) Feed(chunk []byte) {
	p.buf = append(p.buf, chunk...)
}

// Next returns the next complete frame, or false if no complete frame is
// buffered yet. Frames are delimited by a blank line, accepting both
// bare-newline and CRLF separators.
func (p *Parser) Next() (Frame, bool) {
	idx, sepLen := nextSeparator(p.buf)
	if idx < 0 {
		return Frame{}, false
	}

	block := p.buf[:idx]
	p.buf = p.buf[idx+sepLen:]

	return parseBlock(block), true
}

// Rest returns any buffered text that has not yet formed a complete frame.
func (p *Parser) Rest() string {
	return string(p.buf)
}

// nextSeparator finds the earliest blank-line separator in buf, returning
// its index and length, or (-1, 0) if none is present.
func nextSeparator(buf []byte) (int, int) {
	lf := bytes.Index(buf, []byte("\n\n"))
	crlf := bytes.Index(buf, []byte("\r\n\r\n"))

	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0:
		return lf, 2
	case lf < 0:
		return crlf, 4
	case crlf < lf:
		return crlf, 4
	default:
		return lf, 2
	}
}

// parseBlock parses the lines of one event block. event: lines set the
// event name; data: lines are concatenated with newlines. Exactly one
// leading space after the colon is stripped, per SSE convention, never
// more, so indentation inside code blocks survives.
func parseBlock(block []byte) Frame {
	frame := Frame{Event: DefaultEventName}

	var data []string
	for _, line := range strings.Split(string(block), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "event":
			if value != "" {
				frame.Event = value
			}
		case "data":
			data = append(data, value)
		}
		// id: and retry: are valid SSE fields but carry nothing for us.
	}

	frame.Data = strings.Join(data, "\n")
	return frame
}

// splitField splits "field: value", stripping at most one leading space
// from the value.
func splitField(line string) (string, string) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return line, ""
	}

	field := line[:colon]
	value := line[colon+1:]
	if strings.HasPrefix(value, " ") {
		value = value[1:]
	}
	return field, value
}

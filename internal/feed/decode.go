// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"encoding/json"
	"strings"

	"github.com/wingedpig/runfeed/internal/sse"
)

// Decode parses one frame's data payload into an Event.
//
// ok=false means the payload is not a JSON object; callers must fall back
// to treating the raw data string as plain delta text. Malformed JSON is
// never fatal to a stream.
//
// A frame-level event name takes effect when the JSON payload itself
// carries no type tag, so `event: done` with an empty body still decodes
// as a terminal event.
func Decode(frame sse.Frame) (Event, bool) {
	var ev Event
	data := strings.TrimSpace(frame.Data)

	if data != "" {
		dec := json.NewDecoder(strings.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&ev); err != nil {
			return Event{}, false
		}
	}

	if ev.Type == "" && frame.Event != sse.DefaultEventName {
		ev.Type = frame.Event
	}
	return ev, true
}

// ErrorMessage extracts the human-readable message from an `event: error`
// frame. The service emits plain text, {"message": "..."} or
// {"error": {"message": "..."}} depending on which layer failed.
func ErrorMessage(data string) string {
	data = strings.TrimSpace(data)
	if data == "" {
		return ""
	}

	var wrapped struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(data), &wrapped); err == nil {
		if wrapped.Message != "" {
			return wrapped.Message
		}
		if wrapped.Error.Message != "" {
			return wrapped.Error.Message
		}
	}
	return data
}

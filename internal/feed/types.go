// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package feed defines the structured event model for the run event feed.
package feed

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event types pushed by the feed service.
const (
	TypeRunCreated = "run_created"
	TypeRunStatus  = "run_status"
	TypeNeedInput  = "need_input"
	TypePlan       = "plan"
	TypePlanDelta  = "plan_delta"
	TypeReview     = "review"
	TypeDone       = "done"
	TypeStreamEnd  = "stream_end"
	TypeError      = "error"
)

// Run statuses the protocol layer cares about. The service may emit others;
// they pass through normalized but otherwise uninterpreted.
const (
	StatusRunning = "running"
	StatusWaiting = "waiting"
)

// ID is a run/task/event identifier. The service is inconsistent about
// whether ids are JSON strings or numbers, so decoding accepts both.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}
	return fmt.Errorf("id is neither string nor number: %s", string(data))
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Choice is one quick-answer option attached to a need_input prompt.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts both {label, value} objects and bare strings; a
// bare string is shorthand for a choice whose label and value are equal.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Label = s
		c.Value = s
		return nil
	}

	type choice Choice
	var full choice
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*c = Choice(full)
	if c.Label == "" {
		c.Label = c.Value
	}
	return nil
}

// Event is one structured event from the feed: a tagged union whose Type
// selects which of the optional fields are meaningful. An untagged object
// carrying only Delta is a plain text fragment.
type Event struct {
	Type        string          `json:"type,omitempty"`
	RunID       ID              `json:"run_id,omitempty"`
	TaskID      ID              `json:"task_id,omitempty"`
	EventID     ID              `json:"event_id,omitempty"`
	Status      string          `json:"status,omitempty"`
	Question    string          `json:"question,omitempty"`
	Kind        string          `json:"kind,omitempty"`
	Choices     []Choice        `json:"choices,omitempty"`
	PromptToken string          `json:"prompt_token,omitempty"`
	SessionKey  string          `json:"session_key,omitempty"`
	Items       json.RawMessage `json:"items,omitempty"`
	Changes     json.RawMessage `json:"changes,omitempty"`
	Delta       string          `json:"delta,omitempty"`
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	return e.Type == TypeDone || e.Type == TypeStreamEnd
}

// NormalizeStatus lower-cases and trims a run status for comparison.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TerminalStatus reports whether a normalized run status means the run has
// finished and can no longer pause or resume.
func TerminalStatus(s string) bool {
	switch NormalizeStatus(s) {
	case "completed", "failed", "cancelled", "canceled":
		return true
	}
	return false
}

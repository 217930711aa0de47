// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package track deduplicates feed events and maintains per-run state so
// that every surviving event is observed by the application exactly once,
// whether it arrived live, via replay, or through a cross-surface relay.
package track

import (
	"github.com/wingedpig/runfeed/internal/feed"
)

// DefaultSeenCap bounds the seen-event-id set.
const DefaultSeenCap = 2000

// Disposition says what the tracker did with an observed event.
type Disposition int

const (
	// Forwarded means the event survived dedup and reached the sink.
	Forwarded Disposition = iota
	// Duplicate means the event id was already seen.
	Duplicate
	// Suppressed means a type-specific rule swallowed the event
	// (repeated status, repeated prompt, repeated structural event).
	Suppressed
	// Ignored means the event carried nothing to dispatch.
	Ignored
)

// Sink receives the events that survive deduplication. Calls happen
// synchronously, in arrival order, at most once per logical event.
type Sink interface {
	OnRunCreated(ev feed.Event)
	OnRunStatus(ev feed.Event)
	OnNeedInput(ev feed.Event)
	OnPlan(ev feed.Event)
	OnPlanDelta(text string)
	OnReview(ev feed.Event)
	OnDone(ev feed.Event)
	OnDelta(text string)
}

// runKey identifies one run of one task.
type runKey struct {
	task feed.ID
	run  feed.ID
}

// Tracker applies the dedup pipeline: event-id LRU, then type-specific
// suppression, then dispatch. It also keeps the bookkeeping recovery
// needs: the last run/task seen and the newest event id (the replay
// cursor). Not safe for concurrent use; one Tracker per consumer.
type Tracker struct {
	sink Sink

	seen       *lruSet
	lastStatus map[runKey]string
	lastMarker map[runKey]string
	structural map[string]struct{}

	lastRunID   feed.ID
	lastTaskID  feed.ID
	lastEventID string

	business    int
	sawTerminal bool
}

// Config configures a Tracker.
type Config struct {
	Sink Sink
	// SeenCap bounds the event-id dedup set. Defaults to DefaultSeenCap.
	SeenCap int
}

// New creates a Tracker.
func New(cfg Config) *Tracker {
	if cfg.SeenCap <= 0 {
		cfg.SeenCap = DefaultSeenCap
	}
	return &Tracker{
		sink:       cfg.Sink,
		seen:       newLRUSet(cfg.SeenCap),
		lastStatus: make(map[runKey]string),
		lastMarker: make(map[runKey]string),
		structural: make(map[string]struct{}),
	}
}

// Observe runs one event through the dedup pipeline. Feeding the same
// event twice is a no-op the second time, which is what makes replay
// after a dropped connection safe.
func (t *Tracker) Observe(ev feed.Event) Disposition {
	if ev.EventID != "" {
		if !t.seen.Add(string(ev.EventID)) {
			if ev.Terminal() {
				// A re-delivered terminal still means this stream ended
				// cleanly.
				t.sawTerminal = true
			}
			return Duplicate
		}
		t.lastEventID = string(ev.EventID)
	}

	key := runKey{task: ev.TaskID, run: ev.RunID}

	switch ev.Type {
	case feed.TypeRunStatus:
		status := feed.NormalizeStatus(ev.Status)
		if t.lastStatus[key] == status {
			return Suppressed
		}
		t.lastStatus[key] = status
		t.noteRun(ev)
		t.business++
		t.sink.OnRunStatus(ev)
		return Forwarded

	case feed.TypeNeedInput:
		marker := NeedInputMarker(ev)
		if prev, ok := t.lastMarker[key]; ok && prev == marker {
			return Suppressed
		}
		t.lastMarker[key] = marker
		t.noteRun(ev)
		t.business++
		t.sink.OnNeedInput(ev)
		return Forwarded

	case feed.TypeRunCreated:
		if !t.addStructural(ev) {
			return Suppressed
		}
		t.noteRun(ev)
		t.business++
		t.sink.OnRunCreated(ev)
		return Forwarded

	case feed.TypeDone, feed.TypeStreamEnd:
		t.sawTerminal = true
		if !t.addStructural(ev) {
			return Suppressed
		}
		t.noteRun(ev)
		t.sink.OnDone(ev)
		return Forwarded

	case feed.TypePlan:
		t.noteRun(ev)
		t.business++
		t.sink.OnPlan(ev)
		return Forwarded

	case feed.TypePlanDelta:
		t.noteRun(ev)
		t.business++
		if ev.Delta != "" {
			t.sink.OnPlanDelta(ev.Delta)
		}
		return Forwarded

	case feed.TypeReview:
		t.noteRun(ev)
		t.business++
		t.sink.OnReview(ev)
		return Forwarded
	}

	// Untagged or unknown events: the delta field, if any, is all that
	// matters.
	if ev.Delta != "" {
		t.noteRun(ev)
		t.business++
		t.sink.OnDelta(ev.Delta)
		return Forwarded
	}
	return Ignored
}

// ObserveDelta hands raw non-JSON frame text straight to the sink as
// delta content.
func (t *Tracker) ObserveDelta(text string) {
	if text == "" {
		return
	}
	t.business++
	t.sink.OnDelta(text)
}

// LastRun returns the most recently seen (task, run) pair.
func (t *Tracker) LastRun() (taskID, runID feed.ID) {
	return t.lastTaskID, t.lastRunID
}

// Cursor returns the newest event id observed, the starting point for
// replay. Empty means replay from the beginning of retained history.
func (t *Tracker) Cursor() string {
	return t.lastEventID
}

// SetCursor advances the replay cursor. Replay batches may contain ids
// the live stream never delivered.
func (t *Tracker) SetCursor(id string) {
	if id != "" {
		t.lastEventID = id
	}
}

// BusinessEvents returns how many business-state events were forwarded.
// A terminal event with zero business events behind it is a no-op done
// and is grounds for replay.
func (t *Tracker) BusinessEvents() int {
	return t.business
}

// SawTerminal reports whether a done/stream_end event was observed since
// the last BeginSession, even one suppressed as a duplicate.
func (t *Tracker) SawTerminal() bool {
	return t.sawTerminal
}

// BeginSession resets the per-stream terminal marker. Dedup state and
// the replay cursor survive; a resumed run opens a new stream that has
// its own ending.
func (t *Tracker) BeginSession() {
	t.sawTerminal = false
}

func (t *Tracker) noteRun(ev feed.Event) {
	if ev.RunID != "" {
		t.lastRunID = ev.RunID
	}
	if ev.TaskID != "" {
		t.lastTaskID = ev.TaskID
	}
}

// addStructural dedups events that may arrive without an event id, keyed
// by (type, task, run). Returns false on a repeat.
func (t *Tracker) addStructural(ev feed.Event) bool {
	key := ev.Type + "|" + string(ev.TaskID) + "|" + string(ev.RunID)
	if _, ok := t.structural[key]; ok {
		return false
	}
	t.structural[key] = struct{}{}
	return true
}

// NeedInputMarker derives the duplicate-suppression key for a prompt: the
// prompt token when present, else the question text. Question-text
// fingerprints are a known approximation; a rephrased but logically
// identical prompt will not be caught.
func NeedInputMarker(ev feed.Event) string {
	if ev.PromptToken != "" {
		return "tok:" + ev.PromptToken
	}
	return "q:" + ev.Question
}

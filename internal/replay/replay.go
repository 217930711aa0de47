// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package replay repairs gaps left by a dropped live connection by
// re-fetching a run's event history and pushing it through the same
// dedup pipeline the live stream used. Replaying an event the stream
// already delivered is a no-op, so callers cannot distinguish "delivered
// live" from "recovered via replay".
package replay

import (
	"context"
	"encoding/json"
	"log"

	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/track"
)

const (
	// DefaultLimit is the batch size requested per replay round.
	DefaultLimit = 200
	// DefaultMaxRounds bounds how many batches one recovery attempts.
	DefaultMaxRounds = 4
)

// Item is one historical event from the replay endpoint.
type Item struct {
	EventID string          `json:"event_id"`
	Payload json.RawMessage `json:"payload"`
}

// Fetcher fetches a bounded batch of historical events for a run.
// afterEventID="" requests from the beginning of retained history.
type Fetcher interface {
	ReplayEvents(ctx context.Context, runID feed.ID, afterEventID string, limit int) ([]Item, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, runID feed.ID, afterEventID string, limit int) ([]Item, error)

// ReplayEvents implements Fetcher.
func (f FetcherFunc) ReplayEvents(ctx context.Context, runID feed.ID, afterEventID string, limit int) ([]Item, error) {
	return f(ctx, runID, afterEventID, limit)
}

// Recoverer drives bounded replay rounds against a Fetcher.
type Recoverer struct {
	fetcher   Fetcher
	limit     int
	maxRounds int
}

// Config configures a Recoverer.
type Config struct {
	Fetcher   Fetcher
	Limit     int
	MaxRounds int
}

// New creates a Recoverer with defaults applied.
func New(cfg Config) *Recoverer {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	return &Recoverer{fetcher: cfg.Fetcher, limit: cfg.Limit, maxRounds: cfg.MaxRounds}
}

// Recover fetches the missed tail of runID's history and re-injects it
// through the tracker. runHint, when non-empty, overrides the run the
// tracker inferred from traffic. Returns how many events were newly
// observed.
//
// Recovery stops on: an empty batch, a terminal event, a cursor that
// fails to advance for a full batch, a batch shorter than the requested
// limit, or the round cap. Fetch errors are returned but are expected to
// be treated as a soft hint, not a terminal failure.
func (r *Recoverer) Recover(ctx context.Context, tr *track.Tracker, runHint feed.ID) (int, error) {
	runID := runHint
	if runID == "" {
		_, runID = tr.LastRun()
	}
	if runID == "" {
		// Nothing ever identified a run; there is no history to ask for.
		return 0, nil
	}

	recovered := 0
	cursor := tr.Cursor()

	for round := 0; round < r.maxRounds; round++ {
		items, err := r.fetcher.ReplayEvents(ctx, runID, cursor, r.limit)
		if err != nil {
			return recovered, err
		}
		if len(items) == 0 {
			break
		}

		terminal := false
		for _, item := range items {
			ev, ok := decodeItem(item)
			if !ok {
				continue
			}
			if tr.Observe(ev) == track.Forwarded {
				recovered++
			}
			if ev.Terminal() {
				terminal = true
			}
		}

		newest := items[len(items)-1].EventID
		tr.SetCursor(newest)

		if terminal || newest == cursor || len(items) < r.limit {
			break
		}
		cursor = newest
	}

	if recovered > 0 {
		log.Printf("replay: recovered %d events for run %s", recovered, runID)
	}
	return recovered, nil
}

// decodeItem parses a replay payload, stamping the envelope's event id
// onto payloads that lack one. A payload that is not a JSON object is
// treated as plain delta text, mirroring the live-stream fallback.
func decodeItem(item Item) (feed.Event, bool) {
	var ev feed.Event
	if err := json.Unmarshal(item.Payload, &ev); err != nil {
		var text string
		if json.Unmarshal(item.Payload, &text) == nil && text != "" {
			return feed.Event{EventID: feed.ID(item.EventID), Delta: text}, true
		}
		return feed.Event{}, false
	}
	if ev.EventID == "" {
		ev.EventID = feed.ID(item.EventID)
	}
	return ev, true
}

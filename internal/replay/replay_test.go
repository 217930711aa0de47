// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/track"
)

func item(id, payload string) Item {
	return Item{EventID: id, Payload: json.RawMessage(payload)}
}

func newTracker(calls *[]string) *track.Tracker {
	return track.New(track.Config{Sink: track.SinkFuncs{
		RunCreated: func(ev feed.Event) { *calls = append(*calls, "created") },
		RunStatus:  func(ev feed.Event) { *calls = append(*calls, "status:"+ev.Status) },
		Done:       func(ev feed.Event) { *calls = append(*calls, "done") },
		Delta:      func(text string) { *calls = append(*calls, "delta:"+text) },
	}})
}

func TestRecover_SkipsAlreadySeen(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)

	// Live stream delivered e1, then dropped.
	tr.Observe(feed.Event{Type: feed.TypeRunCreated, RunID: "11", TaskID: "8", EventID: "e1"})
	calls = nil

	var gotAfter string
	rec := New(Config{Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		gotAfter = after
		return []Item{
			item("e1", `{"type":"run_created","run_id":11,"task_id":8,"event_id":"e1"}`),
			item("e2", `{"type":"run_status","run_id":11,"task_id":8,"status":"running","event_id":"e2"}`),
		}, nil
	})})

	n, err := rec.Recover(context.Background(), tr, "")
	require.NoError(t, err)

	assert.Equal(t, 1, n, "only e2 is new")
	assert.Equal(t, []string{"status:running"}, calls)
	assert.Equal(t, "e1", gotAfter)
	assert.Equal(t, "e2", tr.Cursor())
}

func TestRecover_FullReplayFromNullCursor(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)

	rec := New(Config{Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		assert.Empty(t, after, "no cursor means replay from the beginning")
		return []Item{item("e1", `{"type":"run_created","run_id":"11"}`)}, nil
	})})

	n, err := rec.Recover(context.Background(), tr, "11")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecover_NoKnownRun(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)

	rec := New(Config{Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		t.Fatal("fetcher must not be called without a run id")
		return nil, nil
	})})

	n, err := rec.Recover(context.Background(), tr, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecover_StopsOnTerminal(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)

	rounds := 0
	rec := New(Config{Limit: 2, Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		rounds++
		return []Item{
			item("e1", `{"type":"run_status","run_id":"11","status":"running"}`),
			item("e2", `{"type":"done","run_id":"11"}`),
		}, nil
	})})

	_, err := rec.Recover(context.Background(), tr, "11")
	require.NoError(t, err)
	assert.Equal(t, 1, rounds, "terminal event ends recovery")
}

func TestRecover_StopsOnShortBatch(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)

	rounds := 0
	rec := New(Config{Limit: 200, Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		rounds++
		assert.Equal(t, 200, limit)
		return []Item{item("e1", `{"type":"run_status","run_id":"11","status":"running"}`)}, nil
	})})

	_, err := rec.Recover(context.Background(), tr, "11")
	require.NoError(t, err)
	assert.Equal(t, 1, rounds, "a batch below the limit is the natural end of history")
}

func TestRecover_StopsOnStuckCursor(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)
	tr.Observe(feed.Event{Type: feed.TypeRunCreated, RunID: "11", EventID: "e1"})

	rounds := 0
	rec := New(Config{Limit: 1, Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		rounds++
		return []Item{item("e1", `{"type":"run_created","run_id":"11","event_id":"e1"}`)}, nil
	})})

	_, err := rec.Recover(context.Background(), tr, "11")
	require.NoError(t, err)
	assert.Equal(t, 1, rounds, "a full batch that fails to advance the cursor stops recovery")
}

func TestRecover_RoundCap(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)

	rounds := 0
	rec := New(Config{Limit: 1, MaxRounds: 4, Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		rounds++
		id := fmt.Sprintf("e%d", rounds)
		return []Item{item(id, fmt.Sprintf(`{"type":"run_status","run_id":"11","status":"s%d","event_id":"%s"}`, rounds, id))}, nil
	})})

	n, err := rec.Recover(context.Background(), tr, "11")
	require.NoError(t, err)
	assert.Equal(t, 4, rounds)
	assert.Equal(t, 4, n)
}

func TestRecover_FetchErrorIsSoft(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)

	boom := errors.New("replay endpoint down")
	rec := New(Config{Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		return nil, boom
	})})

	n, err := rec.Recover(context.Background(), tr, "11")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

func TestRecover_MalformedPayloadFallsBackToDelta(t *testing.T) {
	var calls []string
	tr := newTracker(&calls)

	rec := New(Config{Fetcher: FetcherFunc(func(ctx context.Context, runID feed.ID, after string, limit int) ([]Item, error) {
		return []Item{item("e1", `"纯文本片段"`)}, nil
	})})

	n, err := rec.Recover(context.Background(), tr, "11")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"delta:纯文本片段"}, calls)
}

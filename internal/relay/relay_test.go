// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/runfeed/internal/feed"
)

func TestFilter_DropsOwnEcho(t *testing.T) {
	var received []feed.Event
	f := NewFilter("surface-a", func(ev feed.Event) { received = append(received, ev) })

	own := Envelope{Surface: "surface-a", Event: feed.Event{Type: feed.TypeRunStatus}}
	assert.False(t, f.Receive(own))
	assert.Empty(t, received)

	other := Envelope{Surface: "surface-b", Event: feed.Event{Type: feed.TypeRunStatus, RunID: "11"}}
	assert.True(t, f.Receive(other))
	require.Len(t, received, 1)
	assert.Equal(t, feed.ID("11"), received[0].RunID)
}

func TestNewSurfaceID_Unique(t *testing.T) {
	assert.NotEqual(t, NewSurfaceID(), NewSurfaceID())
}

func TestWSRelay_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}

	// The host shell side: echo every envelope back to the sender and to
	// a hypothetical second surface.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			// Loop the producer's own envelope back, then one from
			// another surface.
			require.NoError(t, conn.WriteJSON(env))
			env.Surface = "surface-b"
			require.NoError(t, conn.WriteJSON(env))
		}
	}))
	defer srv.Close()

	received := make(chan feed.Event, 4)
	filter := NewFilter("surface-a", func(ev feed.Event) { received <- ev })

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	r, err := DialWS(context.Background(), url, "surface-a", filter)
	require.NoError(t, err)
	defer r.Close()

	err = r.Broadcast(context.Background(), Envelope{Event: feed.Event{Type: feed.TypeNeedInput, RunID: "11"}})
	require.NoError(t, err)

	// Only the surface-b copy survives the echo guard.
	select {
	case ev := <-received:
		assert.Equal(t, feed.TypeNeedInput, ev.Type)
		assert.Equal(t, feed.ID("11"), ev.RunID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for relayed event")
	}

	select {
	case ev := <-received:
		t.Fatalf("echo leaked through the filter: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// WSRelay broadcasts envelopes to the host shell over a websocket and
// feeds received envelopes through a Filter. The host shell fans
// broadcasts out to the other surfaces.
type WSRelay struct {
	surface string
	filter  *Filter

	mu   sync.Mutex // guards writes; gorilla allows one writer at a time
	conn *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// DialWS connects to the host shell's relay socket. The returned relay
// runs a read pump until Close is called or the peer disconnects.
func DialWS(ctx context.Context, url, surface string, filter *Filter) (*WSRelay, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	r := &WSRelay{
		surface: surface,
		filter:  filter,
		conn:    conn,
		done:    make(chan struct{}),
	}
	go r.readPump()
	return r, nil
}

// Broadcast sends one envelope to the host shell. The producing surface
// is stamped on the envelope so receivers can apply their echo guard.
func (r *WSRelay) Broadcast(ctx context.Context, env Envelope) error {
	if env.Surface == "" {
		env.Surface = r.surface
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("relay broadcast: %w", err)
	}
	return nil
}

// Done is closed when the read pump exits.
func (r *WSRelay) Done() <-chan struct{} {
	return r.done
}

// Close shuts the connection down.
func (r *WSRelay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.conn.Close()
	})
	return err
}

func (r *WSRelay) readPump() {
	defer close(r.done)
	for {
		var env Envelope
		if err := r.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("relay: read error: %v", err)
			}
			return
		}
		if r.filter != nil {
			r.filter.Receive(env)
		}
	}
}

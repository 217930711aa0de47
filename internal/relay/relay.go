// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package relay forwards already-deduplicated events between UI surfaces.
// Transport mechanics belong to the host shell; this package owns the
// envelope format, surface identity, and the echo guard that stops a
// surface from reprocessing its own broadcast.
package relay

import (
	"context"

	"github.com/google/uuid"

	"github.com/wingedpig/runfeed/internal/feed"
)

// Envelope tags a structured event with the surface that produced it.
type Envelope struct {
	Surface string     `json:"surface"`
	Event   feed.Event `json:"event"`
}

// Relay is a one-way broadcast boundary to other surfaces.
type Relay interface {
	Broadcast(ctx context.Context, env Envelope) error
}

// RelayFunc adapts a function to the Relay interface.
type RelayFunc func(ctx context.Context, env Envelope) error

// Broadcast implements Relay.
func (f RelayFunc) Broadcast(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// NewSurfaceID generates a unique identifier for one UI surface.
func NewSurfaceID() string {
	return uuid.NewString()
}

// Filter delivers received envelopes to a handler, dropping any whose
// producer matches the receiving surface. Without it a surface would
// treat its own broadcasts as external traffic.
type Filter struct {
	surface string
	handler func(ev feed.Event)
}

// NewFilter creates a Filter for the given surface identity.
func NewFilter(surface string, handler func(ev feed.Event)) *Filter {
	return &Filter{surface: surface, handler: handler}
}

// Receive processes one incoming envelope. Returns true if the event was
// delivered, false if it was an echo.
func (f *Filter) Receive(env Envelope) bool {
	if env.Surface == f.surface {
		return false
	}
	f.handler(env.Event)
	return true
}

// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package owner enforces the single-owner invariant for stream sessions:
// at most one session per controller is current, and callbacks belonging
// to a superseded session must become no-ops even if their network call
// resolves later.
package owner

import (
	"context"
	"sync"
)

// Session is one logical stream lifecycle. Callbacks hold the sequence
// number and check IsActive before any side effect, because cancelling a
// context does not un-schedule work already in flight.
type Session struct {
	Seq uint64
	Ctx context.Context
}

// Controller hands out sessions and tracks which one is current.
// Safe for concurrent use.
type Controller struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Start cancels any current session, bumps the sequence and installs a
// new cancellable context derived from parent.
func (c *Controller) Start(parent context.Context) Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.seq++

	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return Session{Seq: c.seq, Ctx: ctx}
}

// IsActive reports whether seq is still the most recent session. Every
// state-mutating callback inside a streamed request must check this
// before acting.
func (c *Controller) IsActive(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.seq
}

// Stop tears down the session identified by seq. A stale sequence is a
// no-op, so an old request's cleanup can never clobber a newer session.
func (c *Controller) Stop(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
}

// Abort unconditionally cancels the current session and bumps the
// sequence, invalidating all outstanding callbacks immediately. This is
// the teardown path.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
}

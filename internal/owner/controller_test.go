// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package owner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_StartSupersedesPrevious(t *testing.T) {
	c := &Controller{}

	a := c.Start(context.Background())
	assert.True(t, c.IsActive(a.Seq))

	b := c.Start(context.Background())
	assert.False(t, c.IsActive(a.Seq), "session A must be rejected once B starts")
	assert.True(t, c.IsActive(b.Seq))

	// Starting B cancelled A's context as well.
	require.Error(t, a.Ctx.Err())
	assert.NoError(t, b.Ctx.Err())
}

func TestController_StaleCallbackIsNoOp(t *testing.T) {
	c := &Controller{}

	a := c.Start(context.Background())
	_ = c.Start(context.Background())

	// Simulates A's network call resolving after B started: the guard
	// every callback runs first.
	mutations := 0
	if c.IsActive(a.Seq) {
		mutations++
	}
	assert.Zero(t, mutations)
}

func TestController_StopOnlyIfCurrent(t *testing.T) {
	c := &Controller{}

	a := c.Start(context.Background())
	b := c.Start(context.Background())

	// A's deferred cleanup fires late; it must not touch B.
	c.Stop(a.Seq)
	assert.True(t, c.IsActive(b.Seq))
	assert.NoError(t, b.Ctx.Err())

	c.Stop(b.Seq)
	assert.False(t, c.IsActive(b.Seq))
	assert.Error(t, b.Ctx.Err())
}

func TestController_Abort(t *testing.T) {
	c := &Controller{}

	s := c.Start(context.Background())
	c.Abort()

	assert.False(t, c.IsActive(s.Seq))
	assert.Error(t, s.Ctx.Err())

	// Abort with no session is harmless.
	c.Abort()
}

func TestController_ParentCancellationPropagates(t *testing.T) {
	c := &Controller{}

	parent, cancel := context.WithCancel(context.Background())
	s := c.Start(parent)
	cancel()

	assert.Error(t, s.Ctx.Err())
	// The sequence is untouched; only contexts know about the parent.
	assert.True(t, c.IsActive(s.Seq))
}

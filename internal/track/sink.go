// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package track

import "github.com/wingedpig/runfeed/internal/feed"

// SinkFuncs adapts a set of optional functions to the Sink interface.
// Nil fields are no-ops, so callers only wire the callbacks they care
// about.
type SinkFuncs struct {
	RunCreated func(ev feed.Event)
	RunStatus  func(ev feed.Event)
	NeedInput  func(ev feed.Event)
	Plan       func(ev feed.Event)
	PlanDelta  func(text string)
	Review     func(ev feed.Event)
	Done       func(ev feed.Event)
	Delta      func(text string)
}

var _ Sink = SinkFuncs{}

func (s SinkFuncs) OnRunCreated(ev feed.Event) {
	if s.RunCreated != nil {
		s.RunCreated(ev)
	}
}

func (s SinkFuncs) OnRunStatus(ev feed.Event) {
	if s.RunStatus != nil {
		s.RunStatus(ev)
	}
}

func (s SinkFuncs) OnNeedInput(ev feed.Event) {
	if s.NeedInput != nil {
		s.NeedInput(ev)
	}
}

func (s SinkFuncs) OnPlan(ev feed.Event) {
	if s.Plan != nil {
		s.Plan(ev)
	}
}

func (s SinkFuncs) OnPlanDelta(text string) {
	if s.PlanDelta != nil {
		s.PlanDelta(text)
	}
}

func (s SinkFuncs) OnReview(ev feed.Event) {
	if s.Review != nil {
		s.Review(ev)
	}
}

func (s SinkFuncs) OnDone(ev feed.Event) {
	if s.Done != nil {
		s.Done(ev)
	}
}

func (s SinkFuncs) OnDelta(text string) {
	if s.Delta != nil {
		s.Delta(text)
	}
}

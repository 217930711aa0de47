// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package resume models a remote run paused for a human answer: accepting
// a prompt, submitting the answer, and suppressing late-arriving
// duplicates of prompts that were already handled.
package resume

import (
	"errors"
	"fmt"
	"time"

	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/track"
)

// State of the resume machine.
type State int

const (
	// StateIdle means no run is paused.
	StateIdle State = iota
	// StateAwaitingAnswer means a prompt is displayed and input is live.
	StateAwaitingAnswer
	// StateSubmitting means a resume request is in flight and input is
	// disabled to block double-submission.
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

const (
	// DefaultRecentTTL is how long a handled prompt's fingerprint blocks
	// re-display of the same prompt arriving late via replay or relay.
	DefaultRecentTTL = 20 * time.Second
	// DefaultRecentCap bounds the recently-handled ring.
	DefaultRecentCap = 32
)

// ErrNoPending is returned by BeginSubmit when nothing awaits an answer.
var ErrNoPending = errors.New("no prompt awaiting an answer")

// Pending is the canonical description of a paused run awaiting a user
// answer.
type Pending struct {
	RunID       feed.ID
	TaskID      feed.ID
	Question    string
	Kind        string
	Choices     []feed.Choice
	PromptToken string
	SessionKey  string
}

// Display is the machine's view of the UI surface. ShowQuestion is always
// called before ShowChoices for the same prompt; choices must never
// appear detached from their question.
type Display interface {
	ShowQuestion(p Pending)
	ShowChoices(p Pending)
	ClearPrompt(runID feed.ID)
	SetInputEnabled(enabled bool)
}

// recentRecord remembers a handled prompt for a short window.
type recentRecord struct {
	runID       feed.ID
	fingerprint string
	at          time.Time
}

// Config configures a Machine.
type Config struct {
	Display   Display
	RecentTTL time.Duration
	RecentCap int
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Machine holds at most one pending prompt and drives the
// idle → awaiting_answer → submitting cycle. Not safe for concurrent
// use; the single-threaded pipeline owns it.
type Machine struct {
	display Display
	state   State
	pending *Pending
	recent  []recentRecord
	ttl     time.Duration
	cap     int
	now     func() time.Time
}

// New creates a Machine with defaults applied.
func New(cfg Config) *Machine {
	if cfg.RecentTTL <= 0 {
		cfg.RecentTTL = DefaultRecentTTL
	}
	if cfg.RecentCap <= 0 {
		cfg.RecentCap = DefaultRecentCap
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Machine{
		display: cfg.Display,
		ttl:     cfg.RecentTTL,
		cap:     cfg.RecentCap,
		now:     cfg.Now,
	}
}

// State returns the current machine state.
func (m *Machine) State() State {
	return m.state
}

// Pending returns a copy of the pending prompt, or nil.
func (m *Machine) Pending() *Pending {
	if m.pending == nil {
		return nil
	}
	p := *m.pending
	return &p
}

// Fingerprint derives the key that identifies "the same logical prompt"
// across live delivery, replay and relay.
func Fingerprint(ev feed.Event) string {
	return fmt.Sprintf("%s|%s|%s", ev.RunID, ev.Kind, track.NeedInputMarker(ev))
}

// Accept offers a need_input event to the machine. It returns false when
// the prompt was recently handled, repeats the currently displayed
// prompt, or targets a different run than the one already pending.
//
// Accepting renders the question before any quick-choice controls, and
// marks a superseded prompt of the same run as recently handled so a
// late duplicate of it stays suppressed.
func (m *Machine) Accept(ev feed.Event) bool {
	fp := Fingerprint(ev)
	if m.recentlyHandled(ev.RunID, fp) {
		return false
	}

	if m.pending != nil {
		if m.pending.RunID != ev.RunID {
			// A new prompt may only replace one targeting the same run.
			return false
		}
		oldFP := m.pendingFingerprint()
		if oldFP == fp {
			return false
		}
		// The superseded prompt joins the ring so a late duplicate of it
		// cannot reinstate itself.
		m.markRecent(m.pending.RunID, oldFP)
	}

	m.pending = &Pending{
		RunID:       ev.RunID,
		TaskID:      ev.TaskID,
		Question:    ev.Question,
		Kind:        ev.Kind,
		Choices:     ev.Choices,
		PromptToken: ev.PromptToken,
		SessionKey:  ev.SessionKey,
	}
	m.state = StateAwaitingAnswer

	m.display.ShowQuestion(*m.pending)
	if len(m.pending.Choices) > 0 {
		m.display.ShowChoices(*m.pending)
	}
	m.display.SetInputEnabled(true)
	return true
}

// ResolveByStatus clears the pending prompt when a later run_status shows
// the run has left the waiting state (including terminal statuses).
// Returns true if a prompt was resolved.
func (m *Machine) ResolveByStatus(runID feed.ID, status string) bool {
	if m.pending == nil || m.pending.RunID != runID {
		return false
	}
	if feed.NormalizeStatus(status) == feed.StatusWaiting {
		return false
	}
	m.resolve()
	return true
}

// ResolveExternal handles a cross-surface notification that the prompt
// identified by fingerprint was answered elsewhere.
func (m *Machine) ResolveExternal(runID feed.ID, fingerprint string) {
	m.markRecent(runID, fingerprint)
	if m.pending != nil && m.pending.RunID == runID && m.pendingFingerprint() == fingerprint {
		m.pending = nil
		m.state = StateIdle
		m.display.ClearPrompt(runID)
	}
}

// BeginSubmit transitions to submitting and disables input. The caller
// sends the returned Pending to the resume endpoint.
func (m *Machine) BeginSubmit() (Pending, error) {
	if m.state != StateAwaitingAnswer || m.pending == nil {
		return Pending{}, ErrNoPending
	}
	m.state = StateSubmitting
	m.display.SetInputEnabled(false)
	return *m.pending, nil
}

// SubmitFailed re-arms input and leaves the pending prompt intact. The
// answer is not assumed delivered until the remote side confirms.
func (m *Machine) SubmitFailed() {
	if m.state != StateSubmitting {
		return
	}
	m.state = StateAwaitingAnswer
	m.display.SetInputEnabled(true)
}

// SubmitSucceeded resolves the answered prompt. If the resume response
// stream already chained a new prompt (Accept ran while submitting), the
// machine is back in awaiting_answer and this call is a no-op for it.
func (m *Machine) SubmitSucceeded() {
	if m.state != StateSubmitting {
		return
	}
	m.resolve()
}

// resolve marks the pending prompt recently handled and returns to idle.
func (m *Machine) resolve() {
	runID := m.pending.RunID
	m.markRecent(runID, m.pendingFingerprint())
	m.pending = nil
	m.state = StateIdle
	m.display.ClearPrompt(runID)
}

func (m *Machine) pendingFingerprint() string {
	return Fingerprint(feed.Event{
		RunID:       m.pending.RunID,
		Kind:        m.pending.Kind,
		Question:    m.pending.Question,
		PromptToken: m.pending.PromptToken,
	})
}

func (m *Machine) recentlyHandled(runID feed.ID, fingerprint string) bool {
	m.prune()
	for _, r := range m.recent {
		if r.runID == runID && r.fingerprint == fingerprint {
			return true
		}
	}
	return false
}

func (m *Machine) markRecent(runID feed.ID, fingerprint string) {
	m.prune()
	m.recent = append(m.recent, recentRecord{runID: runID, fingerprint: fingerprint, at: m.now()})
	if len(m.recent) > m.cap {
		m.recent = m.recent[len(m.recent)-m.cap:]
	}
}

func (m *Machine) prune() {
	cutoff := m.now().Add(-m.ttl)
	kept := m.recent[:0]
	for _, r := range m.recent {
		if r.at.After(cutoff) {
			kept = append(kept, r)
		}
	}
	m.recent = kept
}

// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package accum converts incremental delta text into stable display updates.
//
// Two modes exist. Full mode keeps a transcript and only moves whole
// sentences into the completed buffer, so a display never re-renders a
// half-finished sentence jaggedly. Status mode reduces noisy tool output
// to a single current status line suitable for a small surface.
package accum

import (
	"strings"
	"time"
)

// Mode selects how deltas are accumulated for display.
type Mode int

const (
	// ModeFull accumulates the complete transcript.
	ModeFull Mode = iota
	// ModeStatus shows only the current status line.
	ModeStatus
)

const (
	defaultPushInterval  = 80 * time.Millisecond
	defaultYieldInterval = 50 * time.Millisecond

	maxDots = 3
)

// sentenceEnders are the terminators that mark a completed sentence, in
// both CJK and ASCII punctuation.
const sentenceEnders = "。！？!?."

// statusLabels maps bracketed category markers in status-mode output to
// short human phrases.
var statusLabels = map[string]string{
	"plan":     "Planning",
	"planning": "Planning",
	"skill":    "Looking up skills",
	"step":     "Running step",
	"exec":     "Executing",
	"run":      "Executing",
	"done":     "Wrapping up",
	"complete": "Wrapping up",
	"fail":     "Something went wrong",
	"error":    "Something went wrong",
}

// Config configures an Accumulator.
type Config struct {
	Mode Mode

	// PushInterval is the minimum interval between display pushes.
	PushInterval time.Duration

	// YieldInterval is the minimum interval between cooperative yields
	// back to the host's scheduling loop.
	YieldInterval time.Duration

	// Push receives the current display text. Required.
	Push func(text string)

	// Yield hands control back to the host loop. Optional.
	Yield func()

	// Now is the clock. Defaults to time.Now; tests inject their own.
	Now func() time.Time
}

// Accumulator turns a stream of deltas into throttled display updates.
// It is not safe for concurrent use; the pipeline drives it from a single
// goroutine.
type Accumulator struct {
	cfg Config

	// Full mode.
	completed strings.Builder
	pending   string

	// Status mode.
	status string
	dots   int

	lastPush  time.Time
	lastYield time.Time
}

// New creates an Accumulator with defaults applied.
func New(cfg Config) *Accumulator {
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = defaultPushInterval
	}
	if cfg.YieldInterval <= 0 {
		cfg.YieldInterval = defaultYieldInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Push == nil {
		cfg.Push = func(string) {}
	}
	return &Accumulator{cfg: cfg}
}

// Add consumes one delta fragment.
func (a *Accumulator) Add(delta string) {
	if delta == "" {
		return
	}

	switch a.cfg.Mode {
	case ModeStatus:
		for _, line := range strings.Split(delta, "\n") {
			a.statusLine(line)
		}
	default:
		a.pending += delta
		moved := a.splitCompleted()
		// A completed sentence always pushes through the throttle so the
		// transcript never stalls on a finished thought.
		a.push(moved)
	}
}

// SetIntervals changes the push and yield throttle intervals. Zero or
// negative values keep the current setting. Accumulated text is not
// affected.
func (a *Accumulator) SetIntervals(push, yield time.Duration) {
	if push > 0 {
		a.cfg.PushInterval = push
	}
	if yield > 0 {
		a.cfg.YieldInterval = yield
	}
}

// Flush forces the current text out regardless of throttling. Call it
// whenever the stream is about to yield control: end of stream, a pause
// for user input, or recovery hand-off.
func (a *Accumulator) Flush() {
	a.push(true)
}

// Text returns the current display text: transcript in full mode, the
// current status line in status mode.
func (a *Accumulator) Text() string {
	if a.cfg.Mode == ModeStatus {
		return a.statusText()
	}
	return a.completed.String() + a.pending
}

// MaybeYield invokes the cooperative yield hook if the yield interval has
// elapsed. force skips the throttle; interactive pauses must never wait.
func (a *Accumulator) MaybeYield(force bool) {
	if a.cfg.Yield == nil {
		return
	}
	now := a.cfg.Now()
	if force || now.Sub(a.lastYield) >= a.cfg.YieldInterval {
		a.lastYield = now
		a.cfg.Yield()
	}
}

// splitCompleted moves finished sentences from pending into the completed
// buffer and reports whether anything moved.
func (a *Accumulator) splitCompleted() bool {
	cut := -1
	for i, r := range a.pending {
		if strings.ContainsRune(sentenceEnders, r) {
			cut = i + len(string(r))
		}
	}
	if cut < 0 {
		return false
	}

	a.completed.WriteString(a.pending[:cut])
	a.pending = a.pending[cut:]
	return true
}

// statusLine processes one line of status-mode output.
func (a *Accumulator) statusLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if isEllipsis(line) {
		a.dots = a.dots%maxDots + 1
		a.push(false)
		return
	}

	if tag, ok := bracketTag(line); ok {
		if label, known := statusLabels[tag]; known {
			if label != a.status {
				a.status = label
				a.dots = 0
				a.push(true)
			}
			return
		}
	}

	// Raw content never reaches the status surface; the current status
	// line stands until the next marker.
}

func (a *Accumulator) statusText() string {
	if a.status == "" {
		return ""
	}
	return a.status + strings.Repeat(".", a.dots)
}

// push sends the current text to the display, subject to the push
// throttle unless forced.
func (a *Accumulator) push(force bool) {
	now := a.cfg.Now()
	if !force && now.Sub(a.lastPush) < a.cfg.PushInterval {
		return
	}
	a.lastPush = now
	a.cfg.Push(a.Text())
}

// bracketTag extracts a leading [tag] marker, lower-cased.
func bracketTag(line string) (string, bool) {
	if !strings.HasPrefix(line, "[") {
		return "", false
	}
	end := strings.IndexByte(line, ']')
	if end < 1 {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(line[1:end])), true
}

// isEllipsis reports whether a line is purely a "thinking" animation
// marker: ASCII dots or the unicode ellipsis.
func isEllipsis(line string) bool {
	for _, r := range line {
		if r != '.' && r != '…' {
			return false
		}
	}
	return line != ""
}

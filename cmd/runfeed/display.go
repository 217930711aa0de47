// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/resume"
	"github.com/wingedpig/runfeed/internal/track"
)

// Styles
var (
	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11"))

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	planStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

// display renders feed events and prompts to a terminal. It implements
// both track.Sink and resume.Display so one value can back the whole
// pipeline. Not safe for concurrent use; the pipeline goroutine owns it.
type display struct {
	out io.Writer

	// printed is how much of the accumulated transcript has already been
	// written, so each push appends only the new suffix.
	printed int

	// statusLine is true while the last write was a \r-rewritten status
	// line that the next block output must terminate.
	statusLine bool

	// midLine is true while the cursor sits on an unfinished transcript
	// line, so block output knows to break the line first.
	midLine bool

	inputEnabled bool
}

func newDisplay(out io.Writer) *display {
	return &display{out: out}
}

var (
	_ track.Sink     = (*display)(nil)
	_ resume.Display = (*display)(nil)
)

// PushTranscript is the accumulator hook for full mode: it appends
// whatever suffix of text has not been printed yet.
func (d *display) PushTranscript(text string) {
	if len(text) < d.printed {
		// Transcript reset (new follow on the same display).
		d.printed = 0
	}
	if len(text) == d.printed {
		return
	}
	d.endStatusLine()
	fmt.Fprint(d.out, text[d.printed:])
	d.printed = len(text)
	d.midLine = !strings.HasSuffix(text, "\n")
}

// PushStatus is the accumulator hook for status mode: it rewrites the
// current line in place.
func (d *display) PushStatus(text string) {
	fmt.Fprintf(d.out, "\r\033[K%s", dimStyle.Render(text))
	d.statusLine = true
}

func (d *display) endStatusLine() {
	if d.statusLine {
		fmt.Fprintln(d.out)
		d.statusLine = false
	}
}

func (d *display) line(s string) {
	d.endStatusLine()
	if d.midLine {
		// Break the partial transcript line; the printed offset stays so
		// the next push appends only the unseen suffix.
		fmt.Fprintln(d.out)
		d.midLine = false
	}
	fmt.Fprintln(d.out, s)
}

func (d *display) OnRunCreated(ev feed.Event) {
	d.line(dimStyle.Render(fmt.Sprintf("run %s created (task %s)", ev.RunID, ev.TaskID)))
}

func (d *display) OnRunStatus(ev feed.Event) {
	status := feed.NormalizeStatus(ev.Status)
	s := fmt.Sprintf("run %s: %s", ev.RunID, status)
	if feed.TerminalStatus(status) {
		d.line(doneStyle.Render(s))
		return
	}
	d.line(dimStyle.Render(s))
}

func (d *display) OnNeedInput(ev feed.Event) {
	// The resume machine renders the prompt through the Display
	// interface; nothing extra here.
}

func (d *display) OnPlan(ev feed.Event) {
	d.line(planStyle.Render("plan updated"))
}

func (d *display) OnPlanDelta(text string) {
	d.endStatusLine()
	fmt.Fprint(d.out, planStyle.Render(text))
	d.midLine = !strings.HasSuffix(text, "\n")
}

func (d *display) OnReview(ev feed.Event) {
	d.line(planStyle.Render("review ready"))
}

func (d *display) OnDone(ev feed.Event) {
	d.line(doneStyle.Render("run complete"))
}

func (d *display) OnDelta(text string) {
	d.endStatusLine()
	fmt.Fprint(d.out, text)
	d.midLine = !strings.HasSuffix(text, "\n")
}

// ShowQuestion implements resume.Display.
func (d *display) ShowQuestion(p resume.Pending) {
	d.line(questionStyle.Render(fmt.Sprintf("? %s", p.Question)))
}

// ShowChoices implements resume.Display.
func (d *display) ShowChoices(p resume.Pending) {
	var b strings.Builder
	for i, c := range p.Choices {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  %d) %s", i+1, c.Label)
	}
	d.line(choiceStyle.Render(b.String()))
}

// ClearPrompt implements resume.Display.
func (d *display) ClearPrompt(runID feed.ID) {
	d.line(dimStyle.Render(fmt.Sprintf("prompt for run %s withdrawn", runID)))
}

// SetInputEnabled implements resume.Display.
func (d *display) SetInputEnabled(enabled bool) {
	d.inputEnabled = enabled
}

// Note prints a small informational line, for things like recovery counts.
func (d *display) Note(format string, args ...interface{}) {
	d.line(dimStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (d *display) Error(err error) {
	d.line(errStyle.Render(fmt.Sprintf("error: %v", err)))
}

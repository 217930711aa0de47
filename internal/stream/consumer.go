// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package stream wires the frame parser, dedup tracker, accumulator,
// resume machine and replay recovery into one consumption pipeline that
// turns an unreliable event stream into an exactly-once-observed event
// sequence.
package stream

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/wingedpig/runfeed/internal/accum"
	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/owner"
	"github.com/wingedpig/runfeed/internal/relay"
	"github.com/wingedpig/runfeed/internal/replay"
	"github.com/wingedpig/runfeed/internal/resume"
	"github.com/wingedpig/runfeed/internal/sse"
	"github.com/wingedpig/runfeed/internal/track"
)

// StartFunc opens a streamed response body. Implementations validate the
// HTTP status and content type and return a TransportError-worthy error
// otherwise.
type StartFunc func(ctx context.Context) (io.ReadCloser, error)

// Config assembles a Consumer.
type Config struct {
	// Sink receives the surviving semantic events. Required.
	Sink track.Sink

	// Accum receives delta text. Optional; without it deltas go to
	// Sink.OnDelta directly.
	Accum *accum.Accumulator

	// Resume, when set, is driven by need_input and run_status events.
	Resume *resume.Machine

	// Recoverer, when set, repairs gaps after abnormal termination.
	Recoverer *replay.Recoverer

	// Relay, when set, rebroadcasts surviving events to other surfaces.
	Relay relay.Relay

	// Surface identifies this consumer on the relay.
	Surface string

	// RunHint overrides the run id inferred from traffic when recovery
	// runs.
	RunHint feed.ID

	// SeenCap bounds the dedup set. Zero means the tracker default.
	SeenCap int
}

// Result describes how a consumption session ended.
type Result struct {
	// Recovered is how many events replay recovery newly observed.
	// Callers show a small non-blocking "N events recovered" note,
	// never an error.
	Recovered int

	// Canceled is true when the caller aborted the session. Never a
	// failure.
	Canceled bool

	// HadError is true when the session failed and recovery produced
	// nothing; Err carries the cause.
	HadError bool

	// Err is the terminal error, nil unless HadError.
	Err error
}

// Consumer owns one logical stream consumer: its dedup state, pending
// prompt and session ownership. All methods must be called from the
// same goroutine; the ownership controller protects against stale
// callbacks, not concurrent mutation.
type Consumer struct {
	cfg     Config
	ctl     *owner.Controller
	tracker *track.Tracker

	seq       uint64
	consuming bool
	injecting bool
}

// New creates a Consumer.
func New(cfg Config) *Consumer {
	c := &Consumer{cfg: cfg, ctl: &owner.Controller{}}
	c.tracker = track.New(track.Config{Sink: &pipelineSink{c: c}, SeenCap: cfg.SeenCap})
	return c
}

// Tracker exposes the dedup state for recovery and inspection.
func (c *Consumer) Tracker() *track.Tracker {
	return c.tracker
}

// Abort unconditionally cancels the current session. The correct call on
// teardown: any callback still in flight becomes a no-op.
func (c *Consumer) Abort() {
	c.ctl.Abort()
}

// Inject feeds an event that arrived outside the live stream, typically from a
// cross-surface relay, through the identical dedup path. Already-seen
// events are no-ops.
func (c *Consumer) Inject(ev feed.Event) track.Disposition {
	c.injecting = true
	defer func() { c.injecting = false }()
	return c.tracker.Observe(ev)
}

// Consume opens the stream and runs it to completion, including replay
// recovery when the stream ends without an unambiguous completion.
// Starting a new Consume supersedes any session still in flight.
func (c *Consumer) Consume(ctx context.Context, start StartFunc) Result {
	sess := c.ctl.Start(ctx)
	c.seq = sess.Seq
	c.consuming = true
	c.tracker.BeginSession()
	defer func() {
		c.consuming = false
		c.ctl.Stop(sess.Seq)
	}()

	businessBefore := c.tracker.BusinessEvents()
	remoteErr, readErr := c.consumeLive(sess, start)

	if c.cfg.Accum != nil {
		c.cfg.Accum.Flush()
	}

	if c.canceled(sess) {
		return Result{Canceled: true}
	}

	business := c.tracker.BusinessEvents() - businessBefore
	cleanEnd := c.tracker.SawTerminal() && business > 0 && remoteErr == nil && readErr == nil
	if cleanEnd {
		return Result{}
	}

	// Abnormal end: hard error, abrupt close without a terminal event,
	// or a no-op done. Replay is the repair attempt.
	recovered := 0
	if c.cfg.Recoverer != nil {
		var rerr error
		recovered, rerr = c.cfg.Recoverer.Recover(sess.Ctx, c.tracker, c.cfg.RunHint)
		if rerr != nil {
			// Non-fatal: the live stream may already have delivered a
			// usable, if incomplete, result.
			log.Printf("stream: replay recovery failed: %v", rerr)
		}
		if c.cfg.Accum != nil {
			c.cfg.Accum.Flush()
		}
	}

	if recovered > 0 {
		return Result{Recovered: recovered}
	}

	switch {
	case remoteErr != nil:
		return Result{HadError: true, Err: remoteErr}
	case readErr != nil:
		return Result{HadError: true, Err: readErr}
	case !c.tracker.SawTerminal():
		return Result{HadError: true, Err: ErrInterrupted}
	default:
		// A no-op done with nothing to replay: ended clean, just empty.
		return Result{}
	}
}

// consumeLive reads the body and processes frames until EOF, a terminal
// event, or cancellation.
func (c *Consumer) consumeLive(sess owner.Session, start StartFunc) (remoteErr *RemoteError, readErr error) {
	body, err := start(sess.Ctx)
	if err != nil {
		if sess.Ctx.Err() != nil {
			return nil, nil
		}
		var te *TransportError
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, &TransportError{Err: err}
	}
	defer body.Close()

	parser := &sse.Parser{}
	buf := make([]byte, 4096)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			parser.Feed(buf[:n])
			for {
				frame, ok := parser.Next()
				if !ok {
					break
				}
				if !c.ctl.IsActive(sess.Seq) {
					return remoteErr, nil
				}
				if msg, isErr := errorFrame(frame); isErr {
					remoteErr = &RemoteError{Message: msg}
					continue
				}
				c.handleFrame(frame)
				if c.tracker.SawTerminal() {
					return remoteErr, nil
				}
			}
			if c.cfg.Accum != nil {
				c.cfg.Accum.MaybeYield(false)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || sess.Ctx.Err() != nil {
				return remoteErr, nil
			}
			return remoteErr, &TransportError{Err: err}
		}
	}
}

func (c *Consumer) handleFrame(frame sse.Frame) {
	ev, ok := feed.Decode(frame)
	if !ok {
		// Malformed JSON is recovered locally: the raw data string is
		// plain delta text.
		c.tracker.ObserveDelta(frame.Data)
		return
	}
	c.tracker.Observe(ev)
}

func (c *Consumer) canceled(sess owner.Session) bool {
	return sess.Ctx.Err() != nil || !c.ctl.IsActive(sess.Seq)
}

// errorFrame recognizes an `event: error` block and extracts its message.
func errorFrame(frame sse.Frame) (string, bool) {
	if frame.Event != feed.TypeError {
		return "", false
	}
	return feed.ErrorMessage(frame.Data), true
}

// pipelineSink routes tracker output to the configured sink, the
// accumulator, the resume machine and the relay, guarding every side
// effect with the stale-session check.
type pipelineSink struct {
	c *Consumer
}

var _ track.Sink = (*pipelineSink)(nil)

func (s *pipelineSink) guard() bool {
	if !s.c.consuming {
		// Injected relay traffic outside a live session.
		return true
	}
	return s.c.ctl.IsActive(s.c.seq)
}

func (s *pipelineSink) rebroadcast(ev feed.Event) {
	if s.c.cfg.Relay == nil || s.c.injecting {
		return
	}
	env := relay.Envelope{Surface: s.c.cfg.Surface, Event: ev}
	if err := s.c.cfg.Relay.Broadcast(context.Background(), env); err != nil {
		log.Printf("stream: relay broadcast failed: %v", err)
	}
}

func (s *pipelineSink) OnRunCreated(ev feed.Event) {
	if !s.guard() {
		return
	}
	s.c.cfg.Sink.OnRunCreated(ev)
	s.rebroadcast(ev)
}

func (s *pipelineSink) OnRunStatus(ev feed.Event) {
	if !s.guard() {
		return
	}
	if s.c.cfg.Resume != nil {
		s.c.cfg.Resume.ResolveByStatus(ev.RunID, ev.Status)
	}
	s.c.cfg.Sink.OnRunStatus(ev)
	s.rebroadcast(ev)
}

func (s *pipelineSink) OnNeedInput(ev feed.Event) {
	if !s.guard() {
		return
	}
	if s.c.cfg.Accum != nil {
		// An interactive pause is never delayed by throttling.
		s.c.cfg.Accum.Flush()
		s.c.cfg.Accum.MaybeYield(true)
	}
	if s.c.cfg.Resume != nil && !s.c.cfg.Resume.Accept(ev) {
		return
	}
	s.c.cfg.Sink.OnNeedInput(ev)
	s.rebroadcast(ev)
}

func (s *pipelineSink) OnPlan(ev feed.Event) {
	if !s.guard() {
		return
	}
	s.c.cfg.Sink.OnPlan(ev)
	s.rebroadcast(ev)
}

func (s *pipelineSink) OnPlanDelta(text string) {
	if !s.guard() {
		return
	}
	s.c.cfg.Sink.OnPlanDelta(text)
}

func (s *pipelineSink) OnReview(ev feed.Event) {
	if !s.guard() {
		return
	}
	s.c.cfg.Sink.OnReview(ev)
	s.rebroadcast(ev)
}

func (s *pipelineSink) OnDone(ev feed.Event) {
	if !s.guard() {
		return
	}
	s.c.cfg.Sink.OnDone(ev)
	s.rebroadcast(ev)
}

func (s *pipelineSink) OnDelta(text string) {
	if !s.guard() {
		return
	}
	if s.c.cfg.Accum != nil {
		s.c.cfg.Accum.Add(text)
		return
	}
	s.c.cfg.Sink.OnDelta(text)
}

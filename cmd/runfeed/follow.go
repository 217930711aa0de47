// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wingedpig/runfeed/internal/accum"
	"github.com/wingedpig/runfeed/internal/config"
	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/relay"
	"github.com/wingedpig/runfeed/internal/replay"
	"github.com/wingedpig/runfeed/internal/resume"
	"github.com/wingedpig/runfeed/internal/stream"
	"github.com/wingedpig/runfeed/pkg/client"
)

var followCmd = &cobra.Command{
	Use:   "follow <task-id> [message]",
	Short: "Start a run for a task and follow its event stream",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := ""
		if len(args) > 1 {
			message = args[1]
		}
		return withApp(cmd.Context(), "", func(ctx context.Context, a *app) error {
			return a.followLoop(ctx, stream.StartRun(a.api.Runs, client.StreamRequest{
				TaskID:  args[0],
				Message: message,
			}))
		})
	},
}

func init() {
	rootCmd.AddCommand(followCmd)
}

// app wires the client, pipeline and display for one CLI invocation.
type app struct {
	cfg     *config.Config
	api     *client.Client
	disp    *display
	acc     *accum.Accumulator
	machine *resume.Machine

	consumer *stream.Consumer
	// mu serializes consumer access between the pipeline loop and the
	// relay pump; the consumer itself is single-threaded.
	mu sync.Mutex

	ws      *relay.WSRelay
	relayCh chan feed.Event

	in *bufio.Reader
}

// withApp builds the app, runs fn under signal cancellation, and tears
// everything down. The relay pump runs alongside fn so events answered
// on other surfaces land here while the local pipeline is idle.
func withApp(parent context.Context, runHint feed.ID, fn func(context.Context, *app) error) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cfgPath, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, runHint)
	if err != nil {
		return err
	}
	defer a.close()

	// A config edit during a long interactive session takes effect at the
	// next quiet moment; the mutex keeps it off a live stream.
	if cfgPath != "" {
		defer a.watchConfig(cfgPath)()
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, _ := errgroup.WithContext(runCtx)
	if a.ws != nil {
		g.Go(func() error {
			a.pumpRelay(runCtx)
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		return fn(runCtx, a)
	})
	return g.Wait()
}

func newApp(ctx context.Context, cfg *config.Config, runHint feed.ID) (*app, error) {
	a := &app{
		cfg:  cfg,
		api:  newClient(cfg),
		disp: newDisplay(os.Stdout),
		in:   bufio.NewReader(os.Stdin),
	}

	a.machine = resume.New(resume.Config{
		Display:   a.disp,
		RecentTTL: cfg.RecentTTL(),
		RecentCap: cfg.Resume.RecentCap,
	})

	mode := accum.ModeFull
	push := a.disp.PushTranscript
	if cfg.Display.Mode == "status" {
		mode = accum.ModeStatus
		push = a.disp.PushStatus
	}
	a.acc = accum.New(accum.Config{
		Mode:          mode,
		PushInterval:  cfg.PushInterval(),
		YieldInterval: cfg.YieldInterval(),
		Push:          push,
	})

	recoverer := replay.New(replay.Config{
		Fetcher:   stream.ClientFetcher(a.api.Runs),
		Limit:     cfg.Replay.Limit,
		MaxRounds: cfg.Replay.MaxRounds,
	})

	surface := cfg.Relay.Surface
	if surface == "" {
		surface = relay.NewSurfaceID()
	}

	var rl relay.Relay
	if cfg.Relay.Enable {
		a.relayCh = make(chan feed.Event, 64)
		filter := relay.NewFilter(surface, func(ev feed.Event) {
			select {
			case a.relayCh <- ev:
			default:
				// A slow surface drops relay traffic rather than stalling
				// the socket; replay covers the gap.
			}
		})
		ws, err := relay.DialWS(ctx, cfg.Relay.URL, surface, filter)
		if err != nil {
			return nil, fmt.Errorf("connect relay: %w", err)
		}
		a.ws = ws
		rl = ws
	}

	a.consumer = stream.New(stream.Config{
		Sink:      a.disp,
		Accum:     a.acc,
		Resume:    a.machine,
		Recoverer: recoverer,
		Relay:     rl,
		Surface:   surface,
		RunHint:   runHint,
		SeenCap:   cfg.Dedup.SeenCap,
	})
	return a, nil
}

// watchConfig starts the config watcher and returns its closer. When the
// watcher cannot start, live reload is off for the session; say so
// instead of failing silently.
func (a *app) watchConfig(path string) func() {
	w, err := config.NewWatcher(path, 0, a.applyConfig)
	if err != nil {
		a.disp.Note("config reload disabled: %v", err)
		return func() {}
	}
	return func() { w.Close() }
}

func (a *app) close() {
	if a.ws != nil {
		a.ws.Close()
	}
}

// applyConfig folds a reloaded config's tunables into the running app.
// It waits out any live stream via the consumer mutex.
func (a *app) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
	a.acc.SetIntervals(cfg.PushInterval(), cfg.YieldInterval())
}

// pumpRelay injects relayed events whenever the local pipeline is not
// mid-stream. The mutex makes injection wait out a live Consume, which
// is the correct ordering: live traffic already covers those events.
func (a *app) pumpRelay(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.relayCh:
			a.mu.Lock()
			a.consumer.Inject(ev)
			a.mu.Unlock()
		}
	}
}

func (a *app) consume(ctx context.Context, start stream.StartFunc) stream.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.consumer.Consume(ctx, start)
}

// followLoop consumes a stream, then keeps answering prompts until the
// run finishes, the user declines to answer, or the stream fails.
func (a *app) followLoop(ctx context.Context, start stream.StartFunc) error {
	res := a.consume(ctx, start)
	for {
		if res.Recovered > 0 {
			a.disp.Note("%d events recovered", res.Recovered)
		}
		if res.Canceled || ctx.Err() != nil {
			a.disp.Note("stopped")
			return nil
		}
		if res.HadError {
			return res.Err
		}

		p := a.machine.Pending()
		if p == nil {
			return nil
		}

		answer, err := a.readAnswer(*p)
		if err != nil {
			return err
		}
		if answer == "" {
			a.disp.Note("run %s left paused; answer later with: runfeed resume %s <answer>", p.RunID, p.RunID)
			return nil
		}

		pending, err := a.machine.BeginSubmit()
		if err != nil {
			return err
		}
		res = a.consume(ctx, stream.StartResume(a.api.Runs, client.ResumeRequest{
			RunID:       string(pending.RunID),
			Message:     answer,
			PromptToken: pending.PromptToken,
			SessionKey:  pending.SessionKey,
		}))
		if res.HadError {
			a.machine.SubmitFailed()
			a.disp.Error(res.Err)
			// The prompt is still pending; let the user retry.
			res = stream.Result{}
			continue
		}
		a.machine.SubmitSucceeded()
	}
}

// readAnswer prompts on stdin. A number selects the matching quick
// choice; anything else is free text. Empty input declines to answer.
func (a *app) readAnswer(p resume.Pending) (string, error) {
	if !a.disp.inputEnabled {
		// A submit is still in flight for this prompt; don't solicit a
		// second answer.
		return "", nil
	}
	fmt.Fprint(a.disp.out, "> ")
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		// EOF with nothing typed: leave the run paused.
		return "", nil
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return "", nil
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(p.Choices) {
		return p.Choices[n-1].Value, nil
	}
	return answer, nil
}

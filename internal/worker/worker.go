// Package worker runs diagram generation on a single dedicated goroutine.
//
// Requests are handed over through a one-slot mailbox. A request that has
// not been picked up yet is replaced by the next one, so a burst of edits
// produces at most one render after the one currently in flight.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/pav/internal/notify"
	"github.com/hupe1980/pav/internal/renderer"
)

// State is the worker's position in its render cycle.
type State int

const (
	// Idle means the worker is waiting for a request.
	Idle State = iota
	// Rendering means a renderer process is running.
	Rendering
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request is a pending generation request.
type Request struct {
	Seq    uint64
	Format renderer.Format
	Text   string
}

// Stats is a snapshot of the worker's counters.
type Stats struct {
	// Requested counts RequestGeneration calls.
	Requested uint64
	// Rendered counts completed mailbox renders.
	Rendered uint64
	// Coalesced counts pending requests replaced before being picked up.
	Coalesced uint64
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the logger used for render diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// Worker owns the mailbox and the render loop.
type Worker struct {
	renderer renderer.Renderer
	emitter  notify.Emitter
	logger   *slog.Logger

	mu    sync.Mutex
	slot  Request
	dirty bool
	state State
	seq   uint64

	signal chan struct{}

	requested atomic.Uint64
	rendered  atomic.Uint64
	coalesced atomic.Uint64
}

// New creates a Worker that renders with r and reports through e.
func New(r renderer.Renderer, e notify.Emitter, opts ...Option) *Worker {
	if e == nil {
		e = notify.Discard
	}

	w := &Worker{
		renderer: r,
		emitter:  e,
		logger:   slog.Default(),
		signal:   make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// RequestGeneration stores text as the pending SVG preview request and wakes
// the worker. It never blocks. The returned sequence number identifies the
// request in logs.
func (w *Worker) RequestGeneration(text string) uint64 {
	w.mu.Lock()
	if w.dirty {
		w.coalesced.Add(1)
		w.logger.Debug("pending request superseded", slog.Uint64("seq", w.slot.Seq))
	}

	w.seq++
	w.slot = Request{Seq: w.seq, Format: renderer.FormatSVG, Text: text}
	w.dirty = true
	seq := w.seq
	w.mu.Unlock()

	w.requested.Add(1)

	select {
	case w.signal <- struct{}{}:
	default:
	}

	return seq
}

// Run processes mailbox requests until ctx is cancelled. A render already in
// progress is not interrupted by newer requests.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.signal:
		}

		req, ok := w.take()
		if !ok {
			continue
		}

		w.process(ctx, req)
	}
}

// RenderDirect renders text synchronously, bypassing the mailbox. It does not
// change the worker state or emit loading notifications.
func (w *Worker) RenderDirect(ctx context.Context, format renderer.Format, text string) ([]byte, error) {
	return w.renderer.Render(ctx, format, text)
}

// State returns the current state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state
}

// Pending reports whether a request is waiting in the mailbox.
func (w *Worker) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.dirty
}

// Stats returns a snapshot of the worker counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Requested: w.requested.Load(),
		Rendered:  w.rendered.Load(),
		Coalesced: w.coalesced.Load(),
	}
}

// take empties the mailbox and moves to Rendering.
func (w *Worker) take() (Request, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.dirty {
		return Request{}, false
	}

	req := w.slot
	w.slot = Request{}
	w.dirty = false
	w.state = Rendering

	return req, true
}

func (w *Worker) process(ctx context.Context, req Request) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("render panicked", slog.Uint64("seq", req.Seq), slog.Any("error", r))
		}

		w.emitter.Emit(notify.LoadingChanged(false))

		w.mu.Lock()
		w.state = Idle
		w.mu.Unlock()
	}()

	w.emitter.Emit(notify.LoadingChanged(true))

	out, err := w.renderer.Render(ctx, req.Format, req.Text)
	if err != nil {
		w.logger.Warn("renderer reported a failure",
			slog.Uint64("seq", req.Seq),
			slog.String("error", err.Error()),
		)
	}

	if ctx.Err() != nil {
		return
	}

	w.rendered.Add(1)
	w.logger.Debug("image generated", slog.Uint64("seq", req.Seq), slog.Int("bytes", len(out)))
	w.emitter.Emit(notify.ImageGenerated(out))
}

// Package pav provides a public Go API for rendering PlantUML diagrams and
// for keeping a diagram up to date while its source file is edited.
//
// One-shot rendering:
//
//	img, err := pav.Render(ctx, "@startuml\nA -> B\n@enduml\n",
//	    pav.WithJar("/opt/plantuml/plantuml.jar"),
//	    pav.WithFormat(pav.PNG),
//	)
//
// Live viewing:
//
//	lv, err := pav.NewLiveViewer(pav.WithJar("/opt/plantuml/plantuml.jar"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	go lv.Run(ctx)
//
//	if err := lv.SelectFile(ctx, "diagram.puml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for ev := range lv.Events() {
//	    if ev.Kind == pav.KindImageGenerated {
//	        _ = os.WriteFile("diagram.svg", ev.Image, 0o644)
//	    }
//	}
package pav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pav/internal/config"
	"github.com/hupe1980/pav/internal/logging"
	"github.com/hupe1980/pav/internal/notify"
	"github.com/hupe1980/pav/internal/renderer"
	"github.com/hupe1980/pav/internal/viewer"
	"github.com/hupe1980/pav/internal/watch"
	"github.com/hupe1980/pav/internal/worker"
)

// Format is an output image format.
type Format = renderer.Format

// Supported formats.
const (
	SVG = renderer.FormatSVG
	PNG = renderer.FormatPNG
)

// Event is a notification published by a LiveViewer.
type Event = notify.Event

// Event kinds.
const (
	KindImageGenerated = notify.KindImageGenerated
	KindLoadingChanged = notify.KindLoadingChanged
	KindStatusMessage  = notify.KindStatusMessage
)

// Errors reported by LiveViewer and Render. Use errors.As to inspect them.
type (
	FileAccessError      = viewer.FileAccessError
	TransientAccessError = viewer.TransientAccessError
	IOError              = viewer.IOError
	InvocationError      = renderer.InvocationError
)

// Stats holds the generation counters of a LiveViewer.
type Stats = worker.Stats

// ErrNoSource is returned by SaveImage before any file was selected.
var ErrNoSource = viewer.ErrNoSource

// Option configures rendering and live viewing.
// Use the With* functions to create Options.
type Option func(*options)

type options struct {
	java         string
	jar          string
	extraArgs    []string
	format       Format
	logger       *slog.Logger
	debounce     time.Duration
	pollInterval time.Duration
	maxWait      time.Duration
}

// WithJava sets the executable that launches the PlantUML archive (default: "java").
func WithJava(path string) Option { return func(o *options) { o.java = path } }

// WithJar sets the path to plantuml.jar (default: next to the running binary).
func WithJar(path string) Option { return func(o *options) { o.jar = path } }

// WithExtraArgs appends arguments to every renderer invocation.
func WithExtraArgs(args ...string) Option { return func(o *options) { o.extraArgs = args } }

// WithFormat sets the output format for Render (default: SVG).
func WithFormat(f Format) Option { return func(o *options) { o.format = f } }

// WithLogger sets the logger (default: discard all output).
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithDebounce sets the quiet period merging file events of one save (default: 50ms).
func WithDebounce(d time.Duration) Option { return func(o *options) { o.debounce = d } }

// WithPollInterval sets the retry interval for a temporarily unavailable file (default: 100ms).
func WithPollInterval(d time.Duration) Option { return func(o *options) { o.pollInterval = d } }

// WithMaxWait bounds how long an unavailable file is retried (default: 10s).
func WithMaxWait(d time.Duration) Option { return func(o *options) { o.maxWait = d } }

func newOptions(opts []Option) *options {
	o := &options{
		java:         config.DefaultJava,
		format:       SVG,
		debounce:     config.DefaultDebounce,
		pollInterval: config.DefaultPollInterval,
		maxWait:      config.DefaultMaxWait,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logging.Discard()
	}

	return o
}

func (o *options) renderer() *renderer.Invoker {
	return renderer.New(renderer.Options{
		Executable: o.java,
		JarPath:    o.jar,
		ExtraArgs:  o.extraArgs,
		Logger:     logging.Component(o.logger, "renderer"),
	})
}

// Render runs PlantUML once on text and returns the image bytes. Unlike the
// live viewer, a failed invocation or empty output is reported as an error;
// the bytes produced so far are returned alongside it.
func Render(ctx context.Context, text string, opts ...Option) ([]byte, error) {
	o := newOptions(opts)

	img, err := o.renderer().Render(ctx, o.format, text)
	if err != nil {
		return img, err
	}

	if len(img) == 0 {
		return nil, errors.New("renderer produced no output")
	}

	return img, nil
}

// LiveViewer watches one diagram file and regenerates its image after every
// change. Results arrive on Events in the order they were produced.
type LiveViewer struct {
	queue   *notify.Queue
	watcher *watch.Watcher
	worker  *worker.Worker
	viewer  *viewer.Viewer
}

// NewLiveViewer creates a LiveViewer. Call Run to start it.
func NewLiveViewer(opts ...Option) (*LiveViewer, error) {
	o := newOptions(opts)

	w, err := watch.New(watch.Options{
		Debounce: o.debounce,
		Logger:   logging.Component(o.logger, "watch"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	q := notify.NewQueue()
	wk := worker.New(o.renderer(), q, worker.WithLogger(logging.Component(o.logger, "worker")))
	v := viewer.New(w, wk, q, viewer.Options{
		PollInterval: o.pollInterval,
		MaxWait:      o.maxWait,
		Logger:       logging.Component(o.logger, "viewer"),
	})

	return &LiveViewer{queue: q, watcher: w, worker: wk, viewer: v}, nil
}

// Run drives the watcher, generation worker, notification pump and control
// loop until ctx is cancelled. The file watcher is released on return.
func (l *LiveViewer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return l.queue.Run(gctx) })
	g.Go(func() error { return l.watcher.Run(gctx) })
	g.Go(func() error { return l.worker.Run(gctx) })
	g.Go(func() error { return l.viewer.Run(gctx) })

	err := g.Wait()

	if closeErr := l.watcher.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing watcher: %w", closeErr)
	}

	return err
}

// SelectFile starts watching path and requests a preview of its content.
// Run must be active.
func (l *LiveViewer) SelectFile(ctx context.Context, path string) error {
	return l.viewer.SelectFile(ctx, path)
}

// SaveImage renders the current source in format and writes it to dest.
// Run must be active.
func (l *LiveViewer) SaveImage(ctx context.Context, format Format, dest string) error {
	return l.viewer.SaveImage(ctx, format, dest)
}

// Events returns the notification stream. It is never closed.
func (l *LiveViewer) Events() <-chan Event {
	return l.queue.Events()
}

// Stats returns the generation counters.
func (l *LiveViewer) Stats() Stats {
	return l.worker.Stats()
}

// Package viewer ties the file watcher, the generation worker and the
// presentation layer together.
//
// A Viewer owns the watched path and the last source text read from it.
// Both are only touched from the goroutine running Run: watcher
// notifications are handled there, and SelectFile/SaveImage hand their work
// to that goroutine and wait for the result.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/pav/internal/notify"
	"github.com/hupe1980/pav/internal/output"
	"github.com/hupe1980/pav/internal/renderer"
)

// FileWatcher is the subset of watch.Watcher the viewer drives.
type FileWatcher interface {
	SetFile(path string) error
	Rearm() error
	Changes() <-chan struct{}
}

// Generator is the subset of worker.Worker the viewer drives.
type Generator interface {
	RequestGeneration(text string) uint64
	RenderDirect(ctx context.Context, format renderer.Format, text string) ([]byte, error)
}

// Options configures the retry policy applied when the watched file cannot
// be read after a change notification.
type Options struct {
	// PollInterval is the delay between read attempts.
	PollInterval time.Duration

	// MaxWait is the total time to keep retrying before giving up.
	MaxWait time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// DefaultOptions returns the default retry policy.
func DefaultOptions() Options {
	return Options{
		PollInterval: 100 * time.Millisecond,
		MaxWait:      10 * time.Second,
		Logger:       slog.Default(),
	}
}

type command struct {
	fn   func() error
	done chan error
}

// Viewer is the control surface of the watch → render → display pipeline.
type Viewer struct {
	watcher FileWatcher
	gen     Generator
	emitter notify.Emitter
	opts    Options
	cmds    chan command

	// Owned by the Run goroutine.
	path      string
	source    string
	hasSource bool
}

// New creates a Viewer. Zero option values fall back to DefaultOptions.
func New(w FileWatcher, g Generator, e notify.Emitter, opts Options) *Viewer {
	def := DefaultOptions()

	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}

	if opts.MaxWait <= 0 {
		opts.MaxWait = def.MaxWait
	}

	if opts.Logger == nil {
		opts.Logger = def.Logger
	}

	if e == nil {
		e = notify.Discard
	}

	return &Viewer{
		watcher: w,
		gen:     g,
		emitter: e,
		opts:    opts,
		cmds:    make(chan command),
	}
}

// Run handles watcher notifications and queued calls until ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-v.cmds:
			c.done <- c.fn()

		case <-v.watcher.Changes():
			if err := v.onFileChanged(ctx); err != nil && ctx.Err() == nil {
				v.opts.Logger.Warn("change not processed", slog.String("error", err.Error()))
			}
		}
	}
}

// SelectFile starts watching path and requests a preview of its content.
// An unreadable path is reported through a status notification and a
// *FileAccessError; the current watch and source text stay untouched.
func (v *Viewer) SelectFile(ctx context.Context, path string) error {
	return v.do(ctx, func() error { return v.selectFile(path) })
}

// SaveImage renders the current source text in format and writes the bytes
// to dest, replacing any existing file.
func (v *Viewer) SaveImage(ctx context.Context, format renderer.Format, dest string) error {
	return v.do(ctx, func() error { return v.saveImage(ctx, format, dest) })
}

func (v *Viewer) do(ctx context.Context, fn func() error) error {
	c := command{fn: fn, done: make(chan error, 1)}

	select {
	case v.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Viewer) selectFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		v.emitter.Emit(notify.StatusMessage("File not found: %s", path))
		return &FileAccessError{Path: path, Err: err}
	}

	data, err := os.ReadFile(abs) //nolint:gosec // user selected file
	if err != nil {
		v.emitter.Emit(notify.StatusMessage("File not found: %s", abs))
		return &FileAccessError{Path: abs, Err: err}
	}

	if err := v.watcher.SetFile(abs); err != nil {
		v.emitter.Emit(notify.StatusMessage("Cannot watch %s: %v", abs, err))
		return &FileAccessError{Path: abs, Err: err}
	}

	v.path = abs
	v.source = string(data)
	v.hasSource = true

	seq := v.gen.RequestGeneration(v.source)

	v.opts.Logger.Info("file selected",
		slog.String("path", abs),
		slog.Int("bytes", len(data)),
		slog.Uint64("seq", seq),
	)
	v.emitter.Emit(notify.StatusMessage("Watching: %s", abs))

	return nil
}

func (v *Viewer) onFileChanged(ctx context.Context) error {
	if v.path == "" {
		return nil
	}

	data, elapsed, err := v.readWithRetry(ctx, v.path)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}

		v.emitter.Emit(notify.StatusMessage("Cannot read %s: still unavailable after %s",
			v.path, elapsed.Round(100*time.Millisecond)))

		// The path stays selected; recreating the file triggers the next change.
		if rearmErr := v.watcher.Rearm(); rearmErr != nil {
			v.opts.Logger.Warn("re-arm after failed read", slog.String("error", rearmErr.Error()))
		}

		return err
	}

	if err := v.watcher.Rearm(); err != nil {
		v.opts.Logger.Warn("re-arming watch", slog.String("error", err.Error()))
	}

	text := string(data)
	added, removed := lineDelta(v.source, text)
	v.source = text
	v.hasSource = true

	seq := v.gen.RequestGeneration(text)
	v.emitter.Emit(notify.StatusMessage("Reloaded %s: +%d -%d lines", filepath.Base(v.path), added, removed))

	v.opts.Logger.Debug("source changed",
		slog.String("path", v.path),
		slog.Duration("readWait", elapsed),
		slog.Uint64("seq", seq),
	)

	return nil
}

// readWithRetry reads path, polling every PollInterval for up to MaxWait
// while the file is missing or locked.
func (v *Viewer) readWithRetry(ctx context.Context, path string) ([]byte, time.Duration, error) {
	start := time.Now()

	data, err := os.ReadFile(path) //nolint:gosec // watched file
	if err == nil {
		return data, 0, nil
	}

	v.opts.Logger.Debug("file unavailable, retrying",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)

	ticker := time.NewTicker(v.opts.PollInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(v.opts.MaxWait)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, time.Since(start), ctx.Err()

		case <-deadline.C:
			if data, err = os.ReadFile(path); err == nil { //nolint:gosec // watched file
				return data, time.Since(start), nil
			}

			elapsed := time.Since(start)

			return nil, elapsed, &TransientAccessError{Path: path, Elapsed: elapsed, Err: err}

		case <-ticker.C:
			if data, err = os.ReadFile(path); err == nil { //nolint:gosec // watched file
				return data, time.Since(start), nil
			}
		}
	}
}

func (v *Viewer) saveImage(ctx context.Context, format renderer.Format, dest string) error {
	if !v.hasSource {
		v.emitter.Emit(notify.StatusMessage("Nothing to save: no file selected"))
		return ErrNoSource
	}

	img, err := v.gen.RenderDirect(ctx, format, v.source)
	if err != nil {
		var invErr *renderer.InvocationError
		if !errors.As(err, &invErr) {
			return fmt.Errorf("rendering %s: %w", format, err)
		}

		v.opts.Logger.Warn("renderer reported a failure", slog.String("error", err.Error()))
	}

	w := output.NewFileWriter(dest, output.WithLogger(v.opts.Logger))
	if err := w.Write(img); err != nil {
		v.emitter.Emit(notify.StatusMessage("Cannot save image: %v", err))
		return &IOError{Path: dest, Err: err}
	}

	v.opts.Logger.Info("image saved",
		slog.String("path", dest),
		slog.String("format", format.String()),
		slog.Int("bytes", len(img)),
	)
	v.emitter.Emit(notify.StatusMessage("Saved %s image: %s", format, dest))

	return nil
}

package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options configures the watch behaviour.
type Options struct {
	// Debounce is the quiet period before a change is reported.
	// Zero reports every relevant event immediately.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 50 * time.Millisecond,
		Logger:   slog.Default(),
	}
}

// Watcher watches at most one file path at a time through a watch on its
// parent directory.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu   sync.Mutex
	path string

	debouncer *Debouncer
	changes   chan struct{}
	errs      chan error
	closeOnce sync.Once
}

// New creates a Watcher. Call Run to start delivering notifications.
func New(opts Options) (*Watcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		logger:  opts.Logger,
		changes: make(chan struct{}, 1),
		errs:    make(chan error, 1),
	}

	if opts.Debounce > 0 {
		w.debouncer = NewDebouncer(opts.Debounce, func(string) { w.notify() })
	}

	return w, nil
}

// SetFile replaces the watched path. The file must exist. The watch is
// registered on the file's directory and filtered by name, so the path stays
// armed while editors delete and recreate it. A previously watched directory
// is unregistered before the new one is registered. Setting the current path
// again re-arms it.
func (w *Watcher) SetFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", path, err)
	}

	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("watching file %q: %w", abs, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(abs)

	prev := w.path
	if prev != "" && filepath.Dir(prev) == dir {
		w.path = abs
		w.logger.Debug("watching file", slog.String("path", abs))

		return w.rearmLocked()
	}

	if prev != "" {
		w.remove(filepath.Dir(prev))
	}

	if err := w.fsw.Add(dir); err != nil {
		if prev != "" {
			if restoreErr := w.fsw.Add(filepath.Dir(prev)); restoreErr == nil {
				w.logger.Debug("restored previous watch", slog.String("path", prev))
			} else {
				w.path = ""
			}
		}

		return fmt.Errorf("watching file %q: %w", abs, err)
	}

	w.path = abs
	w.logger.Debug("watching file", slog.String("path", abs), slog.String("dir", dir))

	return nil
}

// Rearm makes sure the directory of the current path is still registered.
// The path itself may be missing; a later create of the file is reported as
// a change. It never drops an existing registration and is a no-op when no
// path is set.
func (w *Watcher) Rearm() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.rearmLocked()
}

func (w *Watcher) rearmLocked() error {
	if w.path == "" {
		return nil
	}

	dir := filepath.Dir(w.path)
	if slices.Contains(w.fsw.WatchList(), dir) {
		return nil
	}

	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("re-arming watch on %q: %w", w.path, err)
	}

	w.logger.Debug("re-armed directory watch", slog.String("dir", dir))

	return nil
}

func (w *Watcher) remove(dir string) {
	if err := w.fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		w.logger.Debug("removing watch", slog.String("dir", dir), slog.String("error", err.Error()))
	}
}

// Path returns the absolute path currently watched, or "".
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.path
}

// WatchList returns the directories registered with the OS watcher.
func (w *Watcher) WatchList() []string {
	return w.fsw.WatchList()
}

// Changes delivers one value per (debounced) change of the watched file.
// Notifications that arrive while one is still unread are merged.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors delivers watcher errors. Errors are dropped when the previous one
// has not been read yet.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Run pumps OS events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, w.Path()) {
				continue
			}

			w.logger.Debug("file event", slog.String("path", event.Name), slog.String("op", event.Op.String()))

			if w.debouncer != nil {
				w.debouncer.Trigger(event.Name)
			} else {
				w.notify()
			}

		case watchErr, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			w.logger.Error("watcher error", slog.String("error", watchErr.Error()))

			select {
			case w.errs <- watchErr:
			default:
			}
		}
	}
}

// Close stops pending notifications and releases the OS watcher.
func (w *Watcher) Close() error {
	var err error

	w.closeOnce.Do(func() {
		if w.debouncer != nil {
			w.debouncer.Stop()
		}

		err = w.fsw.Close()
	})

	return err
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// isRelevant reports whether event describes a content change of path.
func isRelevant(event fsnotify.Event, path string) bool {
	if event.Op == 0 || path == "" {
		return false
	}

	// Write, create, remove and rename matter; a bare chmod does not.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	return filepath.Clean(event.Name) == path
}

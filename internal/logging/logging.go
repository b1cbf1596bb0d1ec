// Package logging builds the pav diagnostic logger.
//
// Records go to stderr, never to stdout, since "pav render -o -" streams the
// image there. The level and format come from --log-level and --log-format
// (or PAV_LOG_LEVEL and PAV_LOG_FORMAT). Every pipeline stage logs through
// a [Component] logger, so a debug run can be filtered by
// component=watch, worker, viewer or renderer.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/pav/internal/config"
)

type ctxKey struct{}

// Setup creates the pav logger on stderr and installs it as the slog default.
func Setup(cfg *config.Config) *slog.Logger {
	return SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter is Setup with an explicit destination, used by the tests
// to capture records.
func SetupWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.EffectiveLogLevel())
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch cfg.LogFormat {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default: // text
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// ParseLevel maps a --log-level value to a slog.Level. Unknown values fall
// back to info; config.Validate rejects them before this is reached.
func ParseLevel(level string) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewContext stores logger in ctx for the subcommands.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

// Discard returns a logger that drops every record. The interactive UI uses
// it because stderr shares the terminal with the rendered screen.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Component returns logger tagged with the pipeline component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("component", name))
}

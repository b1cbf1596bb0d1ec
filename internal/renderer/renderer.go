// Package renderer invokes the external PlantUML process that turns diagram
// source text into SVG or PNG bytes.
//
// The renderer is treated as an opaque collaborator: text goes in on stdin,
// whatever the process writes to stdout comes back verbatim. Exit status is
// not interpreted, so a crashed or missing renderer yields empty or
// tool-generated error output rather than a hard failure.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultExecutable is the program used to launch the renderer archive.
const DefaultExecutable = "java"

// DefaultJarName is the renderer archive looked up next to the binary.
const DefaultJarName = "plantuml.jar"

const stderrTailLimit = 512

// Renderer turns diagram source text into image bytes.
type Renderer interface {
	Render(ctx context.Context, format Format, text string) ([]byte, error)
}

// Options configures the renderer invocation.
type Options struct {
	// Executable launches the archive. Defaults to DefaultExecutable.
	Executable string

	// JarPath is the path to the renderer archive. Defaults to DefaultJarPath().
	JarPath string

	// ExtraArgs are appended after the format flag.
	ExtraArgs []string

	Logger *slog.Logger
}

// DefaultOptions returns options that launch plantuml.jar through java.
func DefaultOptions() Options {
	return Options{
		Executable: DefaultExecutable,
		JarPath:    DefaultJarPath(),
		Logger:     slog.Default(),
	}
}

// DefaultJarPath returns plantuml.jar in the directory of the running
// binary, falling back to the bare name when that cannot be resolved.
func DefaultJarPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultJarName
	}

	return filepath.Join(filepath.Dir(exe), DefaultJarName)
}

// InvocationError reports that the renderer process could not be started or
// did not exit cleanly. Output captured before the failure is still returned
// alongside it.
type InvocationError struct {
	Format Format
	Stderr string
	Err    error
}

func (e *InvocationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("rendering %s: %v: %s", e.Format, e.Err, e.Stderr)
	}

	return fmt.Sprintf("rendering %s: %v", e.Format, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Invoker runs the renderer as a child process.
type Invoker struct {
	opts Options
}

// New creates an Invoker, filling unset options with defaults.
func New(opts Options) *Invoker {
	if opts.Executable == "" {
		opts.Executable = DefaultExecutable
	}

	if opts.JarPath == "" {
		opts.JarPath = DefaultJarPath()
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Invoker{opts: opts}
}

// Command returns the argv used to render the given format.
func (i *Invoker) Command(format Format) []string {
	args := []string{i.opts.Executable, "-splash:no", "-jar", i.opts.JarPath, "-pipe", format.Flag()}

	return append(args, i.opts.ExtraArgs...)
}

// Render feeds text to the renderer and returns everything it wrote to
// stdout. It blocks until the process exits. The returned bytes are valid
// even when err is non-nil.
func (i *Invoker) Render(ctx context.Context, format Format, text string) ([]byte, error) {
	argv := i.Command(format)

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // argv comes from configuration
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	i.opts.Logger.Debug("renderer finished",
		slog.String("format", format.String()),
		slog.Int("inputBytes", len(text)),
		slog.Int("outputBytes", stdout.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)

	if err != nil {
		return stdout.Bytes(), &InvocationError{
			Format: format,
			Stderr: tail(stderr.String(), stderrTailLimit),
			Err:    err,
		}
	}

	return stdout.Bytes(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}

	return "..." + s[len(s)-n:]
}

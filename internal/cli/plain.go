package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/hupe1980/pav/internal/notify"
	"github.com/hupe1980/pav/internal/output"
)

// plainUI prints pipeline notifications as timestamped lines and mirrors
// every generated image into an SVG preview file.
type plainUI struct {
	out      io.Writer
	logger   *slog.Logger
	override string
	now      func() time.Time

	mu     sync.Mutex
	source string

	outMu sync.Mutex

	info  *color.Color
	warn  *color.Color
	faint *color.Color
}

func newPlainUI(out io.Writer, preview string, noColor bool, logger *slog.Logger) *plainUI {
	u := &plainUI{
		out:      out,
		logger:   logger,
		override: preview,
		now:      time.Now,
		info:     color.New(color.FgCyan),
		warn:     color.New(color.FgYellow),
		faint:    color.New(color.Faint),
	}

	if noColor {
		for _, c := range []*color.Color{u.info, u.warn, u.faint} {
			c.DisableColor()
		}
	}

	return u
}

func (u *plainUI) setSource(path string) (prev string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	prev, u.source = u.source, path

	return prev
}

func (u *plainUI) previewPath() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	return previewPath(u.source, u.override)
}

// run consumes events until ctx ends or the channel closes.
func (u *plainUI) run(ctx context.Context, events <-chan notify.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			u.handle(ev)
		}
	}
}

func (u *plainUI) handle(ev notify.Event) {
	switch ev.Kind {
	case notify.KindStatusMessage:
		u.println(u.info, ev.Message)
	case notify.KindLoadingChanged:
		if ev.Loading {
			u.println(u.faint, "rendering...")
		}
	case notify.KindImageGenerated:
		u.showImage(ev.Image)
	}
}

func (u *plainUI) showImage(img []byte) {
	if len(img) == 0 {
		u.println(u.warn, "renderer produced no output (check --java and --jar)")
		return
	}

	path := u.previewPath()
	if path == "" {
		return
	}

	w := output.NewFileWriter(path, output.WithLogger(u.logger))
	if err := w.Write(img); err != nil {
		u.println(u.warn, fmt.Sprintf("cannot update preview: %v", err))
		return
	}

	u.println(u.faint, fmt.Sprintf("preview updated: %s (%d bytes)", path, len(img)))
}

func (u *plainUI) println(c *color.Color, msg string) {
	u.write(fmt.Sprintf("%s %s\n", u.now().Format("15:04:05"), c.Sprint(msg)))
}

// write serialises output from the event and command goroutines.
func (u *plainUI) write(s string) {
	u.outMu.Lock()
	defer u.outMu.Unlock()

	_, _ = io.WriteString(u.out, s)
}

// readCommands executes stdin commands against ctl until EOF, quit, or ctx
// cancellation.
func (u *plainUI) readCommands(ctx context.Context, in io.Reader, ctl controller, quit context.CancelFunc) {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		sc, err := parseCommand(scanner.Text())
		if err != nil {
			u.println(u.warn, err.Error())
			continue
		}

		switch sc.kind {
		case cmdHelp:
			u.write(sessionHelp + "\n")
		case cmdQuit:
			quit()
			return
		case cmdOpen:
			prev := u.setSource(sc.path)
			if err := ctl.SelectFile(ctx, sc.path); err != nil {
				u.setSource(prev)
				u.logger.Debug("open failed", slog.String("path", sc.path), slog.String("error", err.Error()))
			}
		case cmdSave:
			if err := ctl.SaveImage(ctx, sc.format, sc.path); err != nil {
				u.logger.Debug("save failed", slog.String("path", sc.path), slog.String("error", err.Error()))
			}
		}
	}
}

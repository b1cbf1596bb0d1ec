package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hupe1980/pav/internal/config"
	"github.com/hupe1980/pav/internal/logging"
	"github.com/hupe1980/pav/internal/version"
	"github.com/hupe1980/pav/pkg/pav"
)

type watchOptions struct {
	preview string
	noUI    bool
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Watch a PlantUML file and re-render it on every save",
		Long: `Watch monitors a single PlantUML text file and regenerates the
diagram each time the file is saved.

In a terminal an interactive view shows the rendering state and lets you
save the current diagram (s: SVG, p: PNG) or switch to another file (o).

Without a terminal, or with --no-ui, status lines are printed instead and
each generated SVG is written to the preview file. Commands can be typed
on stdin: "open <file>", "save <file> [svg|png]" and "quit".

Editors that save by writing a new file and renaming it over the old one
are supported; a file that is briefly missing is retried for up to
--max-wait.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePlantUMLFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}

			return runWatch(cmd.Context(), cmd, file, opts)
		},
	}

	registerPipelineFlags(cmd)

	f := cmd.Flags()
	f.StringVar(&opts.preview, "preview", "", "SVG preview file (default: <file>.preview.svg)")
	f.BoolVar(&opts.noUI, "no-ui", false, "print status lines instead of the interactive view")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, file string, opts *watchOptions) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	useUI := shouldUseWatchUI(isInteractiveTerminal(), opts.noUI)

	if !useUI && file == "" {
		return &ExitError{Code: 2, Err: fmt.Errorf("a file argument is required without the interactive view")}
	}

	if useUI {
		logger = logging.Discard()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lv, err := newLiveViewer(cfg, logger)
	if err != nil {
		return err
	}

	if useUI {
		return runWithFrontend(ctx, lv, func(ctx context.Context, _ context.CancelFunc) error {
			return runWatchUI(ctx, lv, file, opts.preview)
		})
	}

	return runWithFrontend(ctx, lv, func(ctx context.Context, cancel context.CancelFunc) error {
		return runWatchPlain(ctx, cmd, lv, cfg, logger, file, opts.preview, cancel)
	})
}

func runWatchUI(ctx context.Context, lv *pav.LiveViewer, file, preview string) error {
	model := newWatchModel(ctx, lv, lv.Events(), file, preview)

	prog := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running interactive view: %w", err)
	}

	return nil
}

func runWatchPlain(ctx context.Context, cmd *cobra.Command, lv *pav.LiveViewer, cfg *config.Config,
	logger *slog.Logger, file, preview string, cancel context.CancelFunc,
) error {
	ui := newPlainUI(cmd.ErrOrStderr(), preview, cfg.NoColor, logger)
	ui.setSource(file)

	if !cfg.Quiet {
		ui.println(ui.faint, version.GetInfo().Short()+` (type "help" for commands)`)
	}

	done := make(chan error, 1)
	go func() { done <- ui.run(ctx, lv.Events()) }()

	if err := lv.SelectFile(ctx, file); err != nil {
		cancel()
		<-done

		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil
		}

		return &ExitError{Code: 1, Err: err}
	}

	go ui.readCommands(ctx, cmd.InOrStdin(), lv, cancel)

	return <-done
}

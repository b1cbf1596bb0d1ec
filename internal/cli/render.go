package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pav/internal/config"
	"github.com/hupe1980/pav/internal/logging"
	"github.com/hupe1980/pav/internal/output"
	"github.com/hupe1980/pav/internal/renderer"
	"github.com/hupe1980/pav/pkg/pav"
)

type renderOptions struct {
	format string
	output string
}

func newRenderCommand() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a PlantUML file once",
		Long: `Render runs PlantUML once on the given text file and writes the
resulting diagram.

The format is taken from --format, then from the extension of --output,
and defaults to svg. Without --output the image is written next to the
source file with the format's extension; use "-o -" to write to stdout.`,
		Example: `  pav render diagram.puml
  pav render diagram.puml -t png
  pav render diagram.puml -o - > diagram.svg`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completePlantUMLFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "t", "", "output format: svg, png")
	f.StringVarP(&opts.output, "output", "o", "", `output file path, "-" for stdout (default: <file>.<format>)`)

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormat)

	return cmd
}

// resolveRenderTarget picks the output format and destination.
func resolveRenderTarget(source string, opts *renderOptions) (renderer.Format, string, error) {
	format := renderer.FormatSVG

	if opts.format != "" {
		f, err := renderer.ParseFormat(opts.format)
		if err != nil {
			return "", "", err
		}

		format = f
	} else if f, ok := renderer.FormatFromPath(opts.output); ok {
		format = f
	}

	dest := opts.output
	if dest == "" {
		dest = imagePath(source, format)
	}

	return format, dest, nil
}

func runRender(ctx context.Context, cmd *cobra.Command, source string, opts *renderOptions) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	format, dest, err := resolveRenderTarget(source, opts)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	text, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}

	img, err := pav.Render(ctx, string(text), append(rendererOptions(cfg, logger), pav.WithFormat(format))...)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", source, err)
	}

	w := output.New(dest, cmd.OutOrStdout(), output.WithLogger(logger))
	if err := w.Write(img); err != nil {
		return err
	}

	logger.Info("diagram rendered",
		slog.String("source", source),
		slog.String("format", format.String()),
		slog.String("output", dest),
		slog.Int("bytes", len(img)),
	)

	return nil
}

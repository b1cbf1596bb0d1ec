package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pav/internal/config"
	"github.com/hupe1980/pav/internal/renderer"
	"github.com/hupe1980/pav/pkg/pav"
)

// rendererOptions maps the configuration onto library options.
func rendererOptions(cfg *config.Config, logger *slog.Logger) []pav.Option {
	return []pav.Option{
		pav.WithJava(cfg.Java),
		pav.WithJar(cfg.Jar),
		pav.WithLogger(logger),
	}
}

func newLiveViewer(cfg *config.Config, logger *slog.Logger) (*pav.LiveViewer, error) {
	opts := append(rendererOptions(cfg, logger),
		pav.WithDebounce(cfg.Debounce),
		pav.WithPollInterval(cfg.PollInterval),
		pav.WithMaxWait(cfg.MaxWait),
	)

	return pav.NewLiveViewer(opts...)
}

// runWithFrontend runs lv together with a front end and blocks until the
// front end returns or ctx is cancelled. The front end may stop everything
// early through cancel.
func runWithFrontend(ctx context.Context, lv *pav.LiveViewer,
	frontend func(ctx context.Context, cancel context.CancelFunc) error,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return lv.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return frontend(gctx, cancel)
	})

	return g.Wait()
}

// imagePath returns source with its extension replaced by the format's.
func imagePath(source string, f renderer.Format) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + "." + f.String()
}

// previewPath returns the file receiving live SVG previews for source.
func previewPath(source, override string) string {
	if override != "" {
		return override
	}

	if source == "" {
		return ""
	}

	return strings.TrimSuffix(source, filepath.Ext(source)) + ".preview.svg"
}

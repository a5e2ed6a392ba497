package cli

import (
	"context"
	"fmt"

	"resumatch/internal/analyzer"
	"resumatch/internal/catalog"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/extract"
	"resumatch/internal/observability"
)

// app is the wired analysis stack shared by the commands.
type app struct {
	store    *catalog.Store
	analyzer *analyzer.Service
	ocr      *extract.GeminiOCR
}

// newApp opens the configured catalog, loads it once and builds the
// analyzer. om may be nil.
func newApp(ctx context.Context, cfg *config.Config, logger *errors.Logger, om *observability.ObservabilityManager) (*app, error) {
	metrics := om.GetMetrics()

	source, err := catalog.Open(ctx, cfg.Catalog, logger)
	if err != nil {
		return nil, err
	}
	store := catalog.NewStore(source, logger, metrics.CatalogReloadHook())
	if err := store.Reload(ctx); err != nil {
		closeQuietly(store, logger)
		return nil, err
	}

	a := &app{store: store}

	var opts []extract.Option
	if cfg.Extractor.OCR.Enabled {
		ocr, err := extract.NewGeminiOCR(ctx, cfg.Extractor.OCR, logger)
		if err != nil {
			closeQuietly(store, logger)
			return nil, fmt.Errorf("failed to create OCR client: %w", err)
		}
		a.ocr = ocr.WithMetrics(metrics)
		opts = append(opts, extract.WithOCR(a.ocr))
	}

	a.analyzer = analyzer.New(extract.NewRegistry(logger, opts...), store, cfg, logger,
		analyzer.WithMetrics(metrics),
		analyzer.WithTracer(om.Tracer("resumatch.analyzer")))
	return a, nil
}

func (a *app) Close(logger *errors.Logger) {
	closeQuietly(a.store, logger)
}

func closeQuietly(store *catalog.Store, logger *errors.Logger) {
	if err := store.Close(); err != nil {
		logger.LogError(err, "Failed to close catalog source")
	}
}

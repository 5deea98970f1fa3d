package app

import (
	"fmt"
	"os"

	"print-packager/internal/catalog"
	"print-packager/internal/config"
	"print-packager/internal/usecase/processor"
	"print-packager/internal/usecase/processor/operations"

	"github.com/wb-go/wbf/zlog"
)

// Pipeline is the image side of the application, shared by the server,
// the worker and the CLI.
type Pipeline struct {
	Catalog   *catalog.Catalog
	Generator *processor.Generator
	Previewer *processor.Previewer
}

func NewPipeline(cfg *config.Config, logger *zlog.Zerolog) (*Pipeline, error) {
	cat := catalog.Default()
	if cfg.Processing.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.Processing.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
	}

	var fontBytes []byte
	if cfg.Processing.FontPath != "" {
		data, err := os.ReadFile(cfg.Processing.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		fontBytes = data
	}

	watermarker, err := operations.NewWatermarker(fontBytes)
	if err != nil {
		return nil, err
	}

	filter, err := operations.ParseFilter(cfg.Processing.Filter)
	if err != nil {
		return nil, err
	}

	limits := operations.Limits{
		MaxArea:      cfg.Processing.MaxArea,
		MaxDimension: cfg.Processing.MaxDimension,
	}
	resampler := operations.NewResampler(limits, filter, logger)
	encoder := operations.NewEncoder()

	logger.Info().
		Int("ratios", len(cat.Ratios)).
		Int("sizes", cat.TotalSizes()).
		Str("filter", string(filter)).
		Int64("max_area", limits.MaxArea).
		Int("max_dimension", limits.MaxDimension).
		Msg("Pipeline configuration")

	return &Pipeline{
		Catalog:   cat,
		Generator: processor.NewGenerator(cat, resampler, watermarker, encoder, logger, processor.WithPause(cfg.Processing.Pause)),
		Previewer: processor.NewPreviewer(watermarker, encoder),
	}, nil
}

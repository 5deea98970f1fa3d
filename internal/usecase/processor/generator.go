package processor

import (
	"context"
	"fmt"
	"image"
	"time"

	"print-packager/internal/catalog"
	"print-packager/internal/domain"
	"print-packager/internal/usecase/processor/operations"

	"github.com/wb-go/wbf/zlog"
)

const (
	TaskStarting = "Starting image processing..."
	TaskComplete = "Processing complete!"
)

// ProgressFunc receives every progress update of a batch, in order, on the
// goroutine running Generate.
type ProgressFunc func(domain.Progress)

type Option func(*Generator)

// WithPause sleeps between items so progress consumers can keep up.
func WithPause(d time.Duration) Option {
	return func(g *Generator) {
		g.pause = d
	}
}

// Generator turns one source image into the watermarked and final variants
// of every size in a catalog. Items are produced strictly one after another.
type Generator struct {
	catalog     *catalog.Catalog
	resampler   resampler
	watermarker watermarker
	encoder     encoder
	logger      *zlog.Zerolog
	pause       time.Duration
}

func NewGenerator(cat *catalog.Catalog, resampler resampler, watermarker watermarker, encoder encoder, logger *zlog.Zerolog, opts ...Option) *Generator {
	g := &Generator{
		catalog:     cat,
		resampler:   resampler,
		watermarker: watermarker,
		encoder:     encoder,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Catalog() *catalog.Catalog {
	return g.catalog
}

// Generate runs the batch. Item failures are logged and collected in
// BatchResult.Failures; they never abort the batch. A cancelled ctx stops
// before the next item and returns the partial result with ctx.Err().
func (g *Generator) Generate(ctx context.Context, src image.Image, wm domain.WatermarkSpec, settings domain.ProcessingSettings, onProgress ProgressFunc) (*domain.BatchResult, error) {
	report := func(p domain.Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	total := g.catalog.TotalSizes()
	result := &domain.BatchResult{Total: total}
	report(domain.Progress{Current: 0, Total: total, CurrentTask: TaskStarting})

	g.logger.Info().
		Int("width", src.Bounds().Dx()).
		Int("height", src.Bounds().Dy()).
		Int("total", total).
		Int("default_dpi", settings.DefaultDPI).
		Bool("watermark", wm.Active()).
		Msg("Starting batch generation")

	current := 0
	for _, ratio := range g.catalog.Ratios {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		crop, cropErr := operations.CropToRatio(src, ratio.Ratio)

		for _, size := range ratio.Sizes {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			current++

			var (
				images []domain.DerivedImage
				err    = cropErr
			)
			if err == nil {
				images, err = g.generateItem(crop.Image, ratio, size, wm, settings)
			}

			if err != nil {
				g.logger.Error().
					Err(err).
					Str("ratio", ratio.Name).
					Str("size", size.Name).
					Msg("Failed to generate item, skipping")
				result.Failures = append(result.Failures, domain.ItemFailure{
					RatioName: ratio.Name,
					SizeName:  size.Name,
					Error:     err.Error(),
				})
			} else {
				result.Images = append(result.Images, images...)
			}

			report(domain.Progress{
				Current:     current,
				Total:       total,
				CurrentTask: describe(size),
			})

			if err := g.sleep(ctx); err != nil {
				return result, err
			}
		}
	}

	report(domain.Progress{Current: total, Total: total, CurrentTask: TaskComplete, IsComplete: true})

	g.logger.Info().
		Int("images", len(result.Images)).
		Int("failures", len(result.Failures)).
		Msg("Batch generation completed")

	return result, nil
}

// generateItem yields both variants of one size or an error, never one of
// them alone.
func (g *Generator) generateItem(cropped image.Image, ratio domain.CropRatio, size domain.Size, wm domain.WatermarkSpec, settings domain.ProcessingSettings) (images []domain.DerivedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	dpi, source := settings.ResolveDPI(ratio.Name, size.Name)

	width, height, err := operations.SizeToPixels(size, dpi)
	if err != nil {
		return nil, err
	}

	resized, err := g.resampler.Resize(cropped, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to resize: %w", err)
	}

	final, err := g.encoder.Encode(resized.Image, settings.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode final: %w", err)
	}

	marked, err := g.watermarker.Apply(resized.Image, wm)
	if err != nil {
		return nil, fmt.Errorf("failed to watermark: %w", err)
	}

	watermarked, err := g.encoder.Encode(marked, settings.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode watermarked: %w", err)
	}

	base := domain.DerivedImage{
		RatioName:     ratio.Name,
		SizeName:      size.Name,
		PixelWidth:    resized.Width,
		PixelHeight:   resized.Height,
		NominalWidth:  width,
		NominalHeight: height,
		AppliedDPI:    dpi,
		DPISource:     source,
		MimeType:      domain.MimeJPEG,
	}

	wmImage, finalImage := base, base
	wmImage.Variant, wmImage.Data = domain.VariantWatermarked, watermarked
	finalImage.Variant, finalImage.Data = domain.VariantFinal, final

	g.logger.Debug().
		Str("ratio", ratio.Name).
		Str("size", size.Name).
		Int("width", resized.Width).
		Int("height", resized.Height).
		Int("dpi", dpi).
		Str("dpi_source", string(source)).
		Int("passes", resized.Passes).
		Msg("Item generated")

	return []domain.DerivedImage{wmImage, finalImage}, nil
}

func (g *Generator) sleep(ctx context.Context) error {
	if g.pause <= 0 {
		return nil
	}

	t := time.NewTimer(g.pause)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func describe(size domain.Size) string {
	return fmt.Sprintf("Creating %s (%g×%g %s) - watermarked + final", size.Name, size.Width, size.Height, size.Unit)
}

package processor

import (
	"fmt"
	"image"

	"print-packager/internal/domain"
	"print-packager/internal/usecase/processor/operations"
)

const (
	PreviewMaxSize   = 400
	PreviewQuality   = 0.8
	ThumbnailMaxSize = 512
	ThumbnailQuality = 0.7
)

// Previewer renders the small JPEGs shown next to a batch: a watermark
// preview of the source and per-image thumbnails.
type Previewer struct {
	watermarker watermarker
	encoder     encoder
}

func NewPreviewer(watermarker watermarker, encoder encoder) *Previewer {
	return &Previewer{
		watermarker: watermarker,
		encoder:     encoder,
	}
}

// Preview fits src into maxSize and applies wm as the batch would. The
// watermark scale follows the preview width.
func (p *Previewer) Preview(src image.Image, maxSize int, wm domain.WatermarkSpec) ([]byte, error) {
	small, err := operations.Fit(src, maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to scale preview: %w", err)
	}

	marked, err := p.watermarker.Apply(small, wm)
	if err != nil {
		return nil, fmt.Errorf("failed to watermark preview: %w", err)
	}

	return p.encoder.Encode(marked, PreviewQuality)
}

func (p *Previewer) Thumbnail(img image.Image, maxSize int) ([]byte, error) {
	small, err := operations.Fit(img, maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to scale thumbnail: %w", err)
	}
	return p.encoder.Encode(small, ThumbnailQuality)
}

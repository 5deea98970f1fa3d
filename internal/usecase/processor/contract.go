package processor

import (
	"image"

	"print-packager/internal/domain"
	"print-packager/internal/usecase/processor/operations"
)

type resampler interface {
	Resize(src image.Image, width, height int) (*operations.Resized, error)
}

type watermarker interface {
	Apply(src image.Image, spec domain.WatermarkSpec) (image.Image, error)
}

type encoder interface {
	Encode(img image.Image, quality float64) ([]byte, error)
}

package operations

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Crop is the centered region of a source image matching a target ratio.
// X, Y, Width and Height keep the exact fractional geometry; Image holds the
// pixels of that region rounded to whole pixels.
type Crop struct {
	Image  image.Image
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CropGeometry computes the centered crop of a width x height source for the
// target ratio (width / height).
func CropGeometry(width, height int, ratio float64) (x, y, w, h float64, err error) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, 0, 0, 0, fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, 0, 0, ErrEmptyImage
	}

	sw, sh := float64(width), float64(height)
	if sw/sh > ratio {
		h = sh
		w = h * ratio
		x = (sw - w) / 2
		return x, 0, w, h, nil
	}

	w = sw
	h = w / ratio
	y = (sh - h) / 2
	return 0, y, w, h, nil
}

// CropToRatio returns a new buffer with the centered crop of src. src is not
// modified.
func CropToRatio(src image.Image, ratio float64) (*Crop, error) {
	b := src.Bounds()
	x, y, w, h, err := CropGeometry(b.Dx(), b.Dy(), ratio)
	if err != nil {
		return nil, err
	}

	x0 := int(math.Round(x))
	y0 := int(math.Round(y))
	x1 := int(math.Round(x + w))
	y1 := int(math.Round(y + h))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	rect := image.Rect(x0, y0, x1, y1).Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: crop %v outside %v", ErrSurface, rect, b)
	}

	return &Crop{
		Image:  imaging.Crop(src, rect),
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
	}, nil
}

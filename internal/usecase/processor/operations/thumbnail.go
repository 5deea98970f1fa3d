package operations

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Fit scales img down so its longer side is at most maxDim, keeping the
// aspect. Smaller images are copied unchanged.
func Fit(img image.Image, maxDim int) (image.Image, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	if maxDim <= 0 {
		return nil, ErrInvalidDimension
	}

	w, h := b.Dx(), b.Dy()
	scale := math.Min(1, float64(maxDim)/float64(max(w, h)))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	if nw == w && nh == h {
		xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
		return dst, nil
	}

	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}

package operations

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	xdraw "golang.org/x/image/draw"
)

type Filter string

const (
	FilterCatmullRom Filter = "catmullrom"
	FilterLanczos    Filter = "lanczos"
)

// Limits are the raster ceilings of the rendering backend. Zero disables a
// guard.
type Limits struct {
	MaxArea      int64
	MaxDimension int
}

func DefaultLimits() Limits {
	return Limits{
		MaxArea:      268435456,
		MaxDimension: 16384,
	}
}

// Clamp shrinks width x height uniformly until it fits the limits. The result
// is floored and never below 1px per axis.
func (l Limits) Clamp(width, height int) (int, int, bool) {
	w, h := float64(width), float64(height)
	clamped := false

	if l.MaxArea > 0 && w*h > float64(l.MaxArea) {
		scale := math.Sqrt(float64(l.MaxArea) / (w * h))
		w = math.Floor(w * scale)
		h = math.Floor(h * scale)
		clamped = true
	}

	if maxDim := float64(l.MaxDimension); l.MaxDimension > 0 && (w > maxDim || h > maxDim) {
		scale := math.Min(maxDim/w, maxDim/h)
		w = math.Floor(w * scale)
		h = math.Floor(h * scale)
		clamped = true
	}

	return max(1, int(math.Floor(w))), max(1, int(math.Floor(h))), clamped
}

type Resized struct {
	Image           image.Image
	RequestedWidth  int
	RequestedHeight int
	Width           int
	Height          int
	Clamped         bool
	Passes          int
}

type Resampler struct {
	limits Limits
	filter Filter
	logger *zlog.Zerolog
}

func NewResampler(limits Limits, filter Filter, logger *zlog.Zerolog) *Resampler {
	if filter == "" {
		filter = FilterCatmullRom
	}
	return &Resampler{
		limits: limits,
		filter: filter,
		logger: logger,
	}
}

func (r *Resampler) Limits() Limits {
	return r.limits
}

// Resize scales src to exactly width x height unless the limits force a
// smaller size. Large reductions go through an intermediate size first.
func (r *Resampler) Resize(src image.Image, width, height int) (*Resized, error) {
	sb := src.Bounds()
	if sb.Empty() {
		return nil, ErrEmptyImage
	}

	tw, th, clamped := r.limits.Clamp(width, height)
	if clamped {
		r.logger.Warn().
			Int("requested_width", width).
			Int("requested_height", height).
			Int("width", tw).
			Int("height", th).
			Msg("Target size exceeds raster limits, scaled down")
	}

	if err := checkSurface(tw, th); err != nil {
		return nil, err
	}

	sw, sh := sb.Dx(), sb.Dy()
	passes := 1
	if sw > tw*2 || sh > th*2 {
		scale := math.Max(0.5, math.Min(float64(tw)/float64(sw), float64(th)/float64(sh))*2)
		iw := int(math.Round(float64(sw) * scale))
		ih := int(math.Round(float64(sh) * scale))

		if iw > 0 && ih > 0 && checkSurface(iw, ih) == nil {
			src = r.scale(src, iw, ih)
			passes = 2
		}
	}

	return &Resized{
		Image:           r.scale(src, tw, th),
		RequestedWidth:  width,
		RequestedHeight: height,
		Width:           tw,
		Height:          th,
		Clamped:         clamped,
		Passes:          passes,
	}, nil
}

func (r *Resampler) scale(src image.Image, width, height int) image.Image {
	switch r.filter {
	case FilterLanczos:
		return imaging.Resize(src, width, height, imaging.Lanczos)
	default:
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
		return dst
	}
}

const maxSurfacePixels int64 = 1 << 30

// checkSurface rejects buffers that cannot be addressed as a single RGBA
// slice.
func checkSurface(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrSurface, width, height)
	}
	if int64(width)*int64(height) > maxSurfacePixels {
		return fmt.Errorf("%w: %dx%d too large", ErrSurface, width, height)
	}
	return nil
}

func ParseFilter(name string) (Filter, error) {
	switch Filter(name) {
	case "", FilterCatmullRom:
		return FilterCatmullRom, nil
	case FilterLanczos:
		return FilterLanczos, nil
	default:
		return "", fmt.Errorf("unknown resample filter %q", name)
	}
}

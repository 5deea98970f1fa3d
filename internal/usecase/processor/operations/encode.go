package operations

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// EncodeFunc writes img as JPEG at the given quality in [1,100].
type EncodeFunc func(w io.Writer, img image.Image, quality int) error

type Encoder struct {
	primary  EncodeFunc
	fallback EncodeFunc
}

func NewEncoder() *Encoder {
	return &Encoder{
		primary:  encodeStd,
		fallback: encodeImaging,
	}
}

// NewEncoderWith replaces either path; nil keeps the default.
func NewEncoderWith(primary, fallback EncodeFunc) *Encoder {
	e := NewEncoder()
	if primary != nil {
		e.primary = primary
	}
	if fallback != nil {
		e.fallback = fallback
	}
	return e
}

// JPEGQuality maps a 0..1 quality to the 1..100 scale of image/jpeg.
func JPEGQuality(q float64) int {
	if math.IsNaN(q) {
		return jpeg.DefaultQuality
	}
	return clamp(int(math.Round(q*100)), 1, 100)
}

// Encode serializes img, switching to the fallback path when the primary one
// errors or writes nothing.
func (e *Encoder) Encode(img image.Image, quality float64) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, ErrEmptyImage)
	}

	q := JPEGQuality(quality)

	first := e.try(e.primary, img, q)
	if first.data != nil {
		return first.data, nil
	}

	second := e.try(e.fallback, img, q)
	if second.data != nil {
		return second.data, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrEncoding, errors.Join(first.err, second.err))
}

type attempt struct {
	data []byte
	err  error
}

func (e *Encoder) try(fn EncodeFunc, img image.Image, q int) (a attempt) {
	defer func() {
		if r := recover(); r != nil {
			a = attempt{err: fmt.Errorf("encoder panic: %v", r)}
		}
	}()

	var buf bytes.Buffer
	if err := fn(&buf, img, q); err != nil {
		return attempt{err: err}
	}
	if buf.Len() == 0 {
		return attempt{err: errors.New("encoder produced no data")}
	}
	return attempt{data: buf.Bytes()}
}

func encodeStd(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

func encodeImaging(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

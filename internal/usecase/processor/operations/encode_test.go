package operations

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(w io.Writer, img image.Image, quality int) error {
	return errors.New("encoder unavailable")
}

func silent(w io.Writer, img image.Image, quality int) error {
	return nil
}

func TestEncodePrimary(t *testing.T) {
	data, err := NewEncoder().Encode(gradient(64, 48), 0.9)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestEncodeFallsBack(t *testing.T) {
	for name, primary := range map[string]EncodeFunc{"error": failing, "empty output": silent} {
		t.Run(name, func(t *testing.T) {
			var used int
			fallback := func(w io.Writer, img image.Image, quality int) error {
				used = quality
				return encodeImaging(w, img, quality)
			}

			data, err := NewEncoderWith(primary, fallback).Encode(gradient(32, 32), 0.75)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			assert.Equal(t, 75, used)
		})
	}
}

func TestEncodeBothFail(t *testing.T) {
	_, err := NewEncoderWith(failing, silent).Encode(gradient(8, 8), 0.9)
	assert.ErrorIs(t, err, ErrEncoding)

	panicky := func(w io.Writer, img image.Image, quality int) error { panic("boom") }
	_, err = NewEncoderWith(panicky, failing).Encode(gradient(8, 8), 0.9)
	assert.ErrorIs(t, err, ErrEncoding)
	assert.Contains(t, err.Error(), "boom")
}

func TestEncodeEmptyImage(t *testing.T) {
	_, err := NewEncoder().Encode(image.NewRGBA(image.Rectangle{}), 0.9)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestJPEGQuality(t *testing.T) {
	assert.Equal(t, 90, JPEGQuality(0.9))
	assert.Equal(t, 10, JPEGQuality(0.1))
	assert.Equal(t, 100, JPEGQuality(1.5))
	assert.Equal(t, 1, JPEGQuality(0))
	assert.Equal(t, 70, JPEGQuality(0.7))
}

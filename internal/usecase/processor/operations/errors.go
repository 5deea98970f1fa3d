package operations

import "errors"

var (
	ErrInvalidDPI       = errors.New("dpi must be positive")
	ErrInvalidUnit      = errors.New("unsupported unit")
	ErrInvalidDimension = errors.New("dimension must be positive")
	ErrInvalidRatio     = errors.New("ratio must be positive")
	ErrEmptyImage       = errors.New("image has no pixels")
	ErrSurface          = errors.New("failed to acquire drawing surface")
	ErrEncoding         = errors.New("failed to encode image")
	ErrFontLoad         = errors.New("failed to load font")
	ErrInvalidColor     = errors.New("invalid watermark color")
)

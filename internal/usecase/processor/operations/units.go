package operations

import (
	"fmt"
	"math"

	"print-packager/internal/domain"
)

const millimetersPerInch = 25.4

// ToPixels converts a physical length at the given DPI into a pixel count.
// The DPI is not clamped.
func ToPixels(value float64, unit domain.Unit, dpi int) (int, error) {
	if dpi <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDPI, dpi)
	}
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDimension, value)
	}

	switch unit {
	case domain.UnitInch:
		return int(math.Round(value * float64(dpi))), nil
	case domain.UnitMillimeter:
		return int(math.Round(value / millimetersPerInch * float64(dpi))), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
}

// SizeToPixels converts both axes of a size.
func SizeToPixels(size domain.Size, dpi int) (int, int, error) {
	w, err := ToPixels(size.Width, size.Unit, dpi)
	if err != nil {
		return 0, 0, fmt.Errorf("width of %s: %w", size.Name, err)
	}
	h, err := ToPixels(size.Height, size.Unit, dpi)
	if err != nil {
		return 0, 0, fmt.Errorf("height of %s: %w", size.Name, err)
	}
	return w, h, nil
}

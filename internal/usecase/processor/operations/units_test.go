package operations

import (
	"math"
	"testing"

	"print-packager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPixels(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  domain.Unit
		dpi   int
		want  int
	}{
		{"inches", 4, domain.UnitInch, 600, 2400},
		{"a4 width", 210, domain.UnitMillimeter, 600, 4961},
		{"a4 height", 297, domain.UnitMillimeter, 600, 7016},
		{"high dpi override", 8, domain.UnitInch, 1200, 9600},
		{"fractional", 0.5, domain.UnitInch, 301, 151},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPixels(tt.value, tt.unit, tt.dpi)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToPixelsRejectsInvalidInput(t *testing.T) {
	_, err := ToPixels(4, domain.UnitInch, 0)
	assert.ErrorIs(t, err, ErrInvalidDPI)

	_, err = ToPixels(4, domain.UnitInch, -300)
	assert.ErrorIs(t, err, ErrInvalidDPI)

	_, err = ToPixels(0, domain.UnitInch, 600)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = ToPixels(math.NaN(), domain.UnitInch, 600)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = ToPixels(4, domain.Unit("cm"), 600)
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestSizeToPixels(t *testing.T) {
	w, h, err := SizeToPixels(domain.Size{Name: "A4", Width: 210, Height: 297, Unit: domain.UnitMillimeter}, 600)
	require.NoError(t, err)
	assert.Equal(t, 4961, w)
	assert.Equal(t, 7016, h)

	_, _, err = SizeToPixels(domain.Size{Name: "broken", Width: 4, Height: -1, Unit: domain.UnitInch}, 600)
	assert.ErrorIs(t, err, ErrInvalidDimension)
	assert.Contains(t, err.Error(), "height of broken")
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"print-packager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Len(t, c.Ratios, 6)
	assert.Equal(t, 12, c.TotalSizes())
	assert.Equal(t, "2:3 Portrait", c.Ratios[0].Name)
	assert.InDelta(t, 2.0/3, c.Ratios[0].Ratio, 1e-12)

	a, err := c.Find("A-Series International")
	require.NoError(t, err)
	assert.Equal(t, domain.UnitMillimeter, a.Sizes[0].Unit)
	assert.Equal(t, "A4", a.Sizes[0].Name)

	assert.Contains(t, c.SizeKeys(), "Special Fine Art|13x19 in (Super B)")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
ratios:
  - name: Square
    ratio: "1:1"
    sizes:
      - {name: "8x8 in", width: 8, height: 8, unit: in}
      - {name: "12x12 in", width: 12, height: 12, unit: in}
  - name: Panorama
    ratio: 3/1
    sizes:
      - {name: "900x300 mm", width: 900, height: 300, unit: mm}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.TotalSizes())
	assert.Equal(t, 1.0, c.Ratios[0].Ratio)
	assert.Equal(t, 3.0, c.Ratios[1].Ratio)
	assert.Equal(t, domain.UnitMillimeter, c.Ratios[1].Sizes[0].Unit)
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := map[string]string{
		"empty":          `ratios: []`,
		"bad ratio":      "ratios:\n  - name: X\n    ratio: \"0:3\"\n    sizes: [{name: a, width: 1, height: 1, unit: in}]\n",
		"no sizes":       "ratios:\n  - name: X\n    ratio: \"1\"\n    sizes: []\n",
		"bad unit":       "ratios:\n  - name: X\n    ratio: \"1\"\n    sizes: [{name: a, width: 1, height: 1, unit: cm}]\n",
		"zero width":     "ratios:\n  - name: X\n    ratio: \"1\"\n    sizes: [{name: a, width: 0, height: 1, unit: in}]\n",
		"duplicate size": "ratios:\n  - name: X\n    ratio: \"1\"\n    sizes: [{name: a, width: 1, height: 1, unit: in}, {name: a, width: 2, height: 2, unit: in}]\n",
		"not yaml":       "ratios: [",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestValidateDuplicateRatio(t *testing.T) {
	c := Default()
	c.Ratios = append(c.Ratios, c.Ratios[0])
	assert.ErrorIs(t, c.Validate(), ErrDuplicateName)
}

func TestParseRatio(t *testing.T) {
	for in, want := range map[string]float64{"2:3": 2.0 / 3, "210/297": 210.0 / 297, "0.8": 0.8, " 4 : 5 ": 0.8} {
		got, err := ParseRatio(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-12, in)
	}

	for _, in := range []string{"", "abc", "-1", "1:0", "x/2"} {
		_, err := ParseRatio(in)
		assert.ErrorIs(t, err, ErrInvalidRatio, in)
	}

	_, err := Default().Find("Landscape")
	assert.ErrorIs(t, err, ErrRatioNotFound)
}

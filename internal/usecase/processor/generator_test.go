package processor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"print-packager/internal/catalog"
	"print-packager/internal/domain"
	"print-packager/internal/usecase/processor/operations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Ratios: []domain.CropRatio{
			{Name: "2:3 Portrait", Ratio: 2.0 / 3, Sizes: []domain.Size{
				{Name: "2x3 in", Width: 2, Height: 3, Unit: domain.UnitInch},
				{Name: "4x6 in", Width: 4, Height: 6, Unit: domain.UnitInch},
			}},
			{Name: "Square", Ratio: 1, Sizes: []domain.Size{
				{Name: "50x50 mm", Width: 50, Height: 50, Unit: domain.UnitMillimeter},
			}},
		},
	}
}

func testSource() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 480, 360))
	for y := 0; y < 360; y++ {
		for x := 0; x < 480; x++ {
			img.Set(x, y, color.RGBA{uint8(x / 2), uint8(y / 2), 80, 255})
		}
	}
	return img
}

func testSettings() domain.ProcessingSettings {
	s := domain.DefaultProcessingSettings()
	s.DefaultDPI = 100
	return s
}

// flakyEncoder fails every encode of an image with the given width.
type flakyEncoder struct {
	inner     encoder
	failWidth int
	calls     atomic.Int32
}

func (f *flakyEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	f.calls.Add(1)
	if img.Bounds().Dx() == f.failWidth {
		return nil, operations.ErrEncoding
	}
	return f.inner.Encode(img, quality)
}

func newGenerator(t *testing.T, cat *catalog.Catalog, enc encoder) *Generator {
	t.Helper()
	zlog.Init()

	wm, err := operations.NewWatermarker(nil)
	require.NoError(t, err)
	if enc == nil {
		enc = operations.NewEncoder()
	}

	resampler := operations.NewResampler(operations.DefaultLimits(), operations.FilterCatmullRom, &zlog.Logger)
	return NewGenerator(cat, resampler, wm, enc, &zlog.Logger)
}

func TestGenerateCompleteBatch(t *testing.T) {
	g := newGenerator(t, testCatalog(), nil)

	var updates []domain.Progress
	result, err := g.Generate(context.Background(), testSource(), domain.DefaultWatermarkSpec(), testSettings(), func(p domain.Progress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Empty(t, result.Failures)
	require.Len(t, result.Images, 6)

	want := []struct {
		ratio, size string
		variant     domain.Variant
		w, h        int
	}{
		{"2:3 Portrait", "2x3 in", domain.VariantWatermarked, 200, 300},
		{"2:3 Portrait", "2x3 in", domain.VariantFinal, 200, 300},
		{"2:3 Portrait", "4x6 in", domain.VariantWatermarked, 400, 600},
		{"2:3 Portrait", "4x6 in", domain.VariantFinal, 400, 600},
		{"Square", "50x50 mm", domain.VariantWatermarked, 197, 197},
		{"Square", "50x50 mm", domain.VariantFinal, 197, 197},
	}
	for i, w := range want {
		img := result.Images[i]
		assert.Equal(t, w.ratio, img.RatioName)
		assert.Equal(t, w.size, img.SizeName)
		assert.Equal(t, w.variant, img.Variant)
		assert.Equal(t, w.w, img.PixelWidth)
		assert.Equal(t, w.h, img.PixelHeight)
		assert.Equal(t, 100, img.AppliedDPI)
		assert.Equal(t, domain.DPISourceDefault, img.DPISource)
		assert.Equal(t, domain.MimeJPEG, img.MimeType)
		assert.False(t, img.Clamped())
		assert.NotEmpty(t, img.Data)
	}

	assert.NotEqual(t, result.Images[0].Data, result.Images[1].Data, "watermark changes the encoded output")

	require.Len(t, updates, 5)
	assert.Equal(t, domain.Progress{Current: 0, Total: 3, CurrentTask: TaskStarting}, updates[0])
	for i := 1; i <= 3; i++ {
		assert.Equal(t, i, updates[i].Current)
		assert.Equal(t, 3, updates[i].Total)
		assert.False(t, updates[i].IsComplete)
	}
	assert.Contains(t, updates[1].CurrentTask, "2x3 in")
	assert.Equal(t, domain.Progress{Current: 3, Total: 3, CurrentTask: TaskComplete, IsComplete: true}, updates[4])
}

func TestGenerateIsolatesItemFailures(t *testing.T) {
	enc := &flakyEncoder{inner: operations.NewEncoder(), failWidth: 400}
	g := newGenerator(t, testCatalog(), enc)

	var last domain.Progress
	result, err := g.Generate(context.Background(), testSource(), domain.DefaultWatermarkSpec(), testSettings(), func(p domain.Progress) {
		last = p
	})
	require.NoError(t, err)

	require.Len(t, result.Images, 4)
	for _, img := range result.Images {
		assert.NotEqual(t, "4x6 in", img.SizeName)
	}

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "2:3 Portrait", result.Failures[0].RatioName)
	assert.Equal(t, "4x6 in", result.Failures[0].SizeName)
	assert.Contains(t, result.Failures[0].Error, "encode")

	assert.True(t, last.IsComplete)
	assert.Equal(t, 3, last.Current)
}

func TestGenerateDPIOverride(t *testing.T) {
	g := newGenerator(t, testCatalog(), nil)

	settings := testSettings()
	settings.DPIOverrides = map[string]int{domain.SizeKey("2:3 Portrait", "2x3 in"): 150}

	wm := domain.DefaultWatermarkSpec()
	wm.Enabled = false

	result, err := g.Generate(context.Background(), testSource(), wm, settings, nil)
	require.NoError(t, err)
	require.Len(t, result.Images, 6)

	for _, img := range result.Images {
		if img.RatioName == "2:3 Portrait" && img.SizeName == "2x3 in" {
			assert.Equal(t, 150, img.AppliedDPI)
			assert.Equal(t, domain.DPISourceOverride, img.DPISource)
			assert.Equal(t, 300, img.PixelWidth)
			assert.Equal(t, 450, img.PixelHeight)
			continue
		}
		assert.Equal(t, 100, img.AppliedDPI)
		assert.Equal(t, domain.DPISourceDefault, img.DPISource)
	}

	// A disabled watermark leaves both variants identical.
	assert.Equal(t, result.Images[0].Data, result.Images[1].Data)
}

func TestGenerateInvalidSizeFailsOnlyThatItem(t *testing.T) {
	cat := testCatalog()
	cat.Ratios[1].Sizes = append(cat.Ratios[1].Sizes, domain.Size{Name: "broken", Width: 1, Height: 1, Unit: "cm"})
	g := newGenerator(t, cat, nil)

	result, err := g.Generate(context.Background(), testSource(), domain.DefaultWatermarkSpec(), testSettings(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Len(t, result.Images, 6)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "broken", result.Failures[0].SizeName)
}

func TestGenerateStopsOnCancel(t *testing.T) {
	g := newGenerator(t, testCatalog(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := g.Generate(ctx, testSource(), domain.DefaultWatermarkSpec(), testSettings(), func(p domain.Progress) {
		if p.Current == 1 {
			cancel()
		}
	})
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Len(t, result.Images, 2)
}

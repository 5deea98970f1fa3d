package processor

import (
	"bytes"
	"image/jpeg"
	"testing"

	"print-packager/internal/catalog"
	"print-packager/internal/domain"
	"print-packager/internal/usecase/processor/operations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata(t *testing.T) {
	img := domain.DerivedImage{
		Variant:     domain.VariantWatermarked,
		PixelWidth:  2400,
		PixelHeight: 3600,
		AppliedDPI:  600,
	}

	md := Metadata(img, domain.ExportOptions{ShopName: " Fern Prints ", ArtTitle: "Moss", LicenseText: "Commercial"})
	assert.Equal(t, domain.ImageMetadata{
		DPI:         600,
		PixelWidth:  2400,
		PixelHeight: 3600,
		Variant:     domain.VariantWatermarked,
		Artist:      "Fern Prints",
		Copyright:   "© Fern Prints – License: Commercial",
		Description: "Moss | Watermarked export | License: Commercial",
		Software:    domain.SoftwareLabel,
	}, md)

	img.Variant = domain.VariantFinal
	md = Metadata(img, domain.ExportOptions{})
	assert.Equal(t, "", md.Artist)
	assert.Equal(t, "License: "+domain.DefaultLicenseText, md.Copyright)
	assert.Equal(t, "Final export | License: "+domain.DefaultLicenseText, md.Description)
}

func TestSummarize(t *testing.T) {
	summary := Summarize(catalog.Default())
	require.Len(t, summary, 6)
	assert.Equal(t, domain.RatioSummary{RatioName: "3:4 Portrait", Sizes: []string{"9x12 in", "18x24 in"}}, summary[1])
}

func TestPreviewAndThumbnail(t *testing.T) {
	wm, err := operations.NewWatermarker(nil)
	require.NoError(t, err)
	p := NewPreviewer(wm, operations.NewEncoder())

	data, err := p.Preview(testSource(), PreviewMaxSize, domain.DefaultWatermarkSpec())
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)

	data, err = p.Thumbnail(testSource(), ThumbnailMaxSize)
	require.NoError(t, err)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 480, cfg.Width, "small images are not upscaled")
}

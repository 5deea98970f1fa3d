package processor

import (
	"testing"

	"print-packager/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"2:3 Portrait":           "23portrait",
		"13x19 in (Super B)":     "13x19insuperb",
		"24×36 in":               "24x36in",
		"Café Crème":             "cafecreme",
		"A-Series International": "aseriesinternational",
		"  ":                     "",
		"日本":                     "",
	}

	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestFileBaseName(t *testing.T) {
	opts := domain.ExportOptions{ShopName: "My Art Shop", ArtTitle: "Sunset Über Bay"}
	assert.Equal(t, "MyArtShop_sunsetuberbay_23portrait_4x6in", FileBaseName(opts, "2:3 Portrait", "4x6 in"))

	assert.Equal(t, "untitled_aseriesinternational_a4", FileBaseName(domain.ExportOptions{}, "A-Series International", "A4"))
}

func TestExportItems(t *testing.T) {
	result := &domain.BatchResult{
		Images: []domain.DerivedImage{
			{RatioName: "4:5 Portrait", SizeName: "8x10 in", Variant: domain.VariantWatermarked, Data: []byte{1}, MimeType: domain.MimeJPEG},
			{RatioName: "4:5 Portrait", SizeName: "8x10 in", Variant: domain.VariantFinal, Data: []byte{2}, MimeType: domain.MimeJPEG},
		},
	}

	items := ExportItems(result, domain.ExportOptions{ShopName: "shop", ArtTitle: "Fern"})
	assert.Equal(t, []domain.ExportItem{
		{FileBaseName: "shop_fern_45portrait_8x10in_wm", Variant: domain.VariantWatermarked, Data: []byte{1}, MimeType: domain.MimeJPEG},
		{FileBaseName: "shop_fern_45portrait_8x10in_final", Variant: domain.VariantFinal, Data: []byte{2}, MimeType: domain.MimeJPEG},
	}, items)
}

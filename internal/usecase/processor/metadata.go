package processor

import (
	"strings"

	"print-packager/internal/catalog"
	"print-packager/internal/domain"
)

// Metadata returns the descriptive fields an EXIF writer embeds in img.
func Metadata(img domain.DerivedImage, opts domain.ExportOptions) domain.ImageMetadata {
	shop := strings.TrimSpace(opts.ShopName)
	title := strings.TrimSpace(opts.ArtTitle)
	license := strings.TrimSpace(opts.LicenseText)
	if license == "" {
		license = domain.DefaultLicenseText
	}

	var copyright []string
	if shop != "" {
		copyright = append(copyright, "© "+shop)
	}
	copyright = append(copyright, "License: "+license)

	var description []string
	if title != "" {
		description = append(description, title)
	}
	switch img.Variant {
	case domain.VariantWatermarked:
		description = append(description, "Watermarked export")
	case domain.VariantFinal:
		description = append(description, "Final export")
	}
	description = append(description, "License: "+license)

	return domain.ImageMetadata{
		DPI:         max(1, img.AppliedDPI),
		PixelWidth:  img.PixelWidth,
		PixelHeight: img.PixelHeight,
		Variant:     img.Variant,
		Artist:      shop,
		Copyright:   strings.Join(copyright, " – "),
		Description: strings.Join(description, " | "),
		Software:    domain.SoftwareLabel,
	}
}

// Summarize lists the size names of every ratio, in catalog order.
func Summarize(cat *catalog.Catalog) []domain.RatioSummary {
	summary := make([]domain.RatioSummary, 0, len(cat.Ratios))
	for _, r := range cat.Ratios {
		sizes := make([]string, 0, len(r.Sizes))
		for _, s := range r.Sizes {
			sizes = append(sizes, s.Name)
		}
		summary = append(summary, domain.RatioSummary{RatioName: r.Name, Sizes: sizes})
	}
	return summary
}

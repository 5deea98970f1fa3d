package processor

import (
	"strings"
	"unicode"

	"print-packager/internal/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const untitled = "untitled"

// Slug reduces s to lowercase ASCII letters and digits. Accents are folded
// to their base letter and "×" becomes "x".
func Slug(s string) string {
	s = strings.ReplaceAll(s, "×", "x")

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// FileBaseName builds "[shop]_[title]_[ratio]_[size]". The shop name only
// loses its whitespace; a missing title becomes "untitled".
func FileBaseName(opts domain.ExportOptions, ratioName, sizeName string) string {
	segments := make([]string, 0, 4)

	if shop := strings.Join(strings.Fields(opts.ShopName), ""); shop != "" {
		segments = append(segments, shop)
	}

	title := Slug(opts.ArtTitle)
	if title == "" {
		title = untitled
	}
	segments = append(segments, title)

	for _, s := range []string{Slug(ratioName), Slug(sizeName)} {
		if s != "" {
			segments = append(segments, s)
		}
	}

	return strings.Join(segments, "_")
}

func VariantSuffix(v domain.Variant) string {
	if v == domain.VariantWatermarked {
		return "_wm"
	}
	return "_final"
}

// ExportItems maps a batch result onto what a save collaborator writes.
func ExportItems(result *domain.BatchResult, opts domain.ExportOptions) []domain.ExportItem {
	items := make([]domain.ExportItem, 0, len(result.Images))
	for _, img := range result.Images {
		items = append(items, domain.ExportItem{
			FileBaseName: FileBaseName(opts, img.RatioName, img.SizeName) + VariantSuffix(img.Variant),
			Variant:      img.Variant,
			Data:         img.Data,
			MimeType:     img.MimeType,
		})
	}
	return items
}

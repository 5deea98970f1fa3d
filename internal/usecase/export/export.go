package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"print-packager/internal/catalog"
	"print-packager/internal/domain"
	"print-packager/internal/repository/batch/local"
	"print-packager/internal/usecase/processor"

	"github.com/wb-go/wbf/zlog"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const previewName = "preview"

const thumbnailDir domain.Variant = "thumbnails"

type generator interface {
	Generate(ctx context.Context, src image.Image, wm domain.WatermarkSpec, settings domain.ProcessingSettings, onProgress processor.ProgressFunc) (*domain.BatchResult, error)
}

type previewer interface {
	Preview(src image.Image, maxSize int, wm domain.WatermarkSpec) ([]byte, error)
	Thumbnail(img image.Image, maxSize int) ([]byte, error)
}

type Request struct {
	SourcePath string
	OutputDir  string
	Watermark  domain.WatermarkSpec
	Processing domain.ProcessingSettings
	Export     domain.ExportOptions
	Preview    bool
	Thumbnails bool
}

type Report struct {
	Saved    int
	Failed   int
	Failures []domain.ItemFailure
	Manifest string
}

// Packager runs one source file through the generator and writes the result
// as a folder of JPEGs plus a manifest.
type Packager struct {
	catalog   *catalog.Catalog
	generator generator
	previewer previewer
	logger    *zlog.Zerolog
}

func NewPackager(cat *catalog.Catalog, gen generator, prev previewer, logger *zlog.Zerolog) *Packager {
	return &Packager{
		catalog:   cat,
		generator: gen,
		previewer: prev,
		logger:    logger,
	}
}

func (p *Packager) Package(ctx context.Context, req Request) (*Report, error) {
	src, err := decodeFile(req.SourcePath)
	if err != nil {
		return nil, err
	}

	exporter := local.NewExporter(req.OutputDir, p.logger)

	result, err := p.generator.Generate(ctx, src, req.Watermark, req.Processing, func(pr domain.Progress) {
		p.logger.Info().
			Int("current", pr.Current).
			Int("total", pr.Total).
			Str("task", pr.CurrentTask).
			Msg("Progress")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", req.SourcePath, err)
	}

	items := processor.ExportItems(result, req.Export)
	if req.Preview {
		items = append(items, p.preview(src, req.Watermark)...)
	}
	if req.Thumbnails {
		items = append(items, p.thumbnails(items)...)
	}

	saved, err := exporter.Save(ctx, items)
	if err != nil {
		return nil, err
	}

	manifest := &local.Manifest{
		Software: domain.SoftwareLabel,
		Summary:  processor.Summarize(p.catalog),
		Files:    make([]local.ManifestEntry, 0, len(result.Images)),
		Failures: result.Failures,
	}
	for i, img := range result.Images {
		rel, err := filepath.Rel(exporter.Root(), exporter.PathFor(items[i]))
		if err != nil {
			rel = exporter.PathFor(items[i])
		}
		manifest.Files = append(manifest.Files, local.ManifestEntry{
			File:     filepath.ToSlash(rel),
			Ratio:    img.RatioName,
			Size:     img.SizeName,
			Metadata: processor.Metadata(img, req.Export),
		})
	}

	manifestPath, err := exporter.WriteManifest(manifest)
	if err != nil {
		return nil, err
	}

	return &Report{
		Saved:    saved.Saved,
		Failed:   saved.Failed,
		Failures: result.Failures,
		Manifest: manifestPath,
	}, nil
}

func (p *Packager) preview(src image.Image, wm domain.WatermarkSpec) []domain.ExportItem {
	data, err := p.previewer.Preview(src, processor.PreviewMaxSize, wm)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to render preview")
		return nil
	}
	return []domain.ExportItem{{FileBaseName: previewName, Data: data, MimeType: domain.MimeJPEG}}
}

// thumbnails renders one small JPEG per final image.
func (p *Packager) thumbnails(items []domain.ExportItem) []domain.ExportItem {
	var thumbs []domain.ExportItem
	for _, item := range items {
		if item.Variant != domain.VariantFinal {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(item.Data))
		if err != nil {
			p.logger.Warn().Err(err).Str("file", item.FileBaseName).Msg("Failed to decode image for thumbnail")
			continue
		}
		data, err := p.previewer.Thumbnail(img, processor.ThumbnailMaxSize)
		if err != nil {
			p.logger.Warn().Err(err).Str("file", item.FileBaseName).Msg("Failed to render thumbnail")
			continue
		}
		thumbs = append(thumbs, domain.ExportItem{
			FileBaseName: item.FileBaseName,
			Variant:      thumbnailDir,
			Data:         data,
			MimeType:     domain.MimeJPEG,
		})
	}
	return thumbs
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return src, nil
}

package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"print-packager/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

const ManifestName = "manifest.json"

// SaveReport counts the files a Save call wrote and the ones it could not.
type SaveReport struct {
	Saved  int      `json:"saved"`
	Failed int      `json:"failed"`
	Paths  []string `json:"paths"`
	Errors []string `json:"errors,omitempty"`
}

// ManifestEntry is the sidecar record of one exported file.
type ManifestEntry struct {
	File     string               `json:"file"`
	Ratio    string               `json:"ratio"`
	Size     string               `json:"size"`
	Metadata domain.ImageMetadata `json:"metadata"`
}

type Manifest struct {
	Software string                `json:"software"`
	Summary  []domain.RatioSummary `json:"summary"`
	Files    []ManifestEntry       `json:"files"`
	Failures []domain.ItemFailure  `json:"failures,omitempty"`
}

// Exporter writes derived images to <root>/<variant>/<base>.jpg.
type Exporter struct {
	root   string
	logger *zlog.Zerolog
}

func NewExporter(root string, logger *zlog.Zerolog) *Exporter {
	return &Exporter{
		root:   root,
		logger: logger,
	}
}

func (e *Exporter) Root() string {
	return e.root
}

func (e *Exporter) PathFor(item domain.ExportItem) string {
	return filepath.Join(e.root, string(item.Variant), item.FileBaseName+".jpg")
}

// Save writes every item it can. A failed file is counted and the rest are
// still written; only a cancelled ctx stops early.
func (e *Exporter) Save(ctx context.Context, items []domain.ExportItem) (*SaveReport, error) {
	report := &SaveReport{}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		p := e.PathFor(item)
		if err := writeFile(p, item.Data); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, err.Error())
			e.logger.Error().Err(err).Str("path", p).Msg("Failed to save file")
			continue
		}

		report.Saved++
		report.Paths = append(report.Paths, p)
	}

	e.logger.Info().
		Str("root", e.root).
		Int("saved", report.Saved).
		Int("failed", report.Failed).
		Msg("Export finished")

	return report, nil
}

func (e *Exporter) WriteManifest(m *Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	p := filepath.Join(e.root, ManifestName)
	if err := writeFile(p, data); err != nil {
		return "", err
	}
	return p, nil
}

func writeFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

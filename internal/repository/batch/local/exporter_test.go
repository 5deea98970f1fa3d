package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"print-packager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func newExporter(t *testing.T) *Exporter {
	t.Helper()
	zlog.Init()
	return NewExporter(t.TempDir(), &zlog.Logger)
}

func TestSave(t *testing.T) {
	e := newExporter(t)

	items := []domain.ExportItem{
		{FileBaseName: "shop_art_a4_wm", Variant: domain.VariantWatermarked, Data: []byte("wm"), MimeType: domain.MimeJPEG},
		{FileBaseName: "shop_art_a4_final", Variant: domain.VariantFinal, Data: []byte("final"), MimeType: domain.MimeJPEG},
	}

	report, err := e.Save(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Saved)
	assert.Equal(t, 0, report.Failed)

	data, err := os.ReadFile(filepath.Join(e.Root(), "watermarked", "shop_art_a4_wm.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "wm", string(data))

	data, err = os.ReadFile(filepath.Join(e.Root(), "final", "shop_art_a4_final.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "final", string(data))
}

func TestSaveCountsFailures(t *testing.T) {
	e := newExporter(t)

	// A regular file where the variant directory should be blocks that variant.
	require.NoError(t, os.WriteFile(filepath.Join(e.Root(), "final"), []byte("x"), 0o644))

	report, err := e.Save(context.Background(), []domain.ExportItem{
		{FileBaseName: "a_wm", Variant: domain.VariantWatermarked, Data: []byte("1")},
		{FileBaseName: "a_final", Variant: domain.VariantFinal, Data: []byte("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Saved)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, report.Errors, 1)
}

func TestSaveStopsOnCancel(t *testing.T) {
	e := newExporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.Save(ctx, []domain.ExportItem{{FileBaseName: "a", Variant: domain.VariantFinal}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Saved)
}

func TestWriteManifest(t *testing.T) {
	e := newExporter(t)

	p, err := e.WriteManifest(&Manifest{
		Software: domain.SoftwareLabel,
		Summary:  []domain.RatioSummary{{RatioName: "Square", Sizes: []string{"8x8 in"}}},
		Files:    []ManifestEntry{{File: "final/a.jpg", Ratio: "Square", Size: "8x8 in"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(p)
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "Square", m.Summary[0].RatioName)
	assert.Equal(t, "final/a.jpg", m.Files[0].File)
}

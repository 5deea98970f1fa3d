package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"print-packager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "9090"
db:
  host: db
  name: prints
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
processing:
  jpeg_quality: 0.85
  default_dpi: 300
  dpi_overrides:
    "2:3 Portrait|24x36 in": 200
  filter: lanczos
watermark:
  enabled: true
  text: "© Fern"
  position: repeat
  rotation: 30
export:
  shop_name: Fern Prints
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "host=db port=5432 user=postgres password=postgres dbname=prints sslmode=disable", cfg.DBDSN())

	settings := cfg.ProcessingSettings()
	assert.Equal(t, 0.85, settings.JPEGQuality)
	dpi, source := settings.ResolveDPI("2:3 Portrait", "24x36 in")
	assert.Equal(t, 200, dpi)
	assert.Equal(t, domain.DPISourceOverride, source)

	wm := cfg.WatermarkSpec()
	assert.Equal(t, domain.WatermarkRepeat, wm.Position)
	assert.Equal(t, "© Fern", wm.Text)
	assert.Equal(t, 0.5, wm.Opacity)
	assert.Equal(t, 30.0, wm.RotationDegrees)
	assert.True(t, wm.Enabled)

	assert.Equal(t, "Fern Prints", cfg.ExportOptions().ShopName)
	assert.Equal(t, domain.DefaultLicenseText, cfg.ExportOptions().LicenseText)

	rs := cfg.DefaultRetryStrategy()
	assert.Equal(t, 3, rs.Attempts)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"quality":  "processing:\n  jpeg_quality: 1.5\n",
		"dpi":      "processing:\n  default_dpi: 10\n",
		"filter":   "processing:\n  filter: nearest\n",
		"position": "watermark:\n  position: middle\n",
		"color":    "watermark:\n  color: \"#12\"\n",
		"override": "processing:\n  dpi_overrides:\n    \"a|b\": 5000\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnvWithoutFile(t *testing.T) {
	t.Setenv("PROCESSING_DEFAULT_DPI", "1200")
	t.Setenv("WORKER_CONCURRENCY", "4")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Processing.DefaultDPI)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, domain.DefaultJPEGQuality, cfg.Processing.JPEGQuality)
}

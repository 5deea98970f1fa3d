package domain

import (
	"fmt"
	"strings"
)

type WatermarkPosition string

const (
	WatermarkTopLeft     WatermarkPosition = "top-left"
	WatermarkTopRight    WatermarkPosition = "top-right"
	WatermarkBottomLeft  WatermarkPosition = "bottom-left"
	WatermarkBottomRight WatermarkPosition = "bottom-right"
	WatermarkCenter      WatermarkPosition = "center"
	WatermarkRepeat      WatermarkPosition = "repeat"
)

type WatermarkSpec struct {
	Enabled         bool              `json:"enabled" yaml:"enabled"`
	Text            string            `json:"text" yaml:"text"`
	Opacity         float64           `json:"opacity" yaml:"opacity" validate:"gte=0,lte=1"`
	FontSize        float64           `json:"font_size" yaml:"font_size" validate:"gt=0"`
	Color           string            `json:"color" yaml:"color" validate:"watermark_color"`
	Position        WatermarkPosition `json:"position" yaml:"position" validate:"oneof=top-left top-right bottom-left bottom-right center repeat"`
	RotationDegrees float64           `json:"rotation" yaml:"rotation"`
	MarginX         float64           `json:"margin_x" yaml:"margin_x" validate:"gte=0"`
	MarginY         float64           `json:"margin_y" yaml:"margin_y" validate:"gte=0"`
}

// Active reports whether the spec draws anything at all.
func (w WatermarkSpec) Active() bool {
	return w.Enabled && strings.TrimSpace(w.Text) != ""
}

type ProcessingSettings struct {
	JPEGQuality  float64        `json:"jpeg_quality" yaml:"jpeg_quality" validate:"gte=0.1,lte=1"`
	DefaultDPI   int            `json:"default_dpi" yaml:"default_dpi" validate:"gte=72,lte=2400"`
	DPIOverrides map[string]int `json:"dpi_overrides" yaml:"dpi_overrides" validate:"dive,gte=72,lte=2400"`
}

// SizeKey builds the DPIOverrides key of a size within a ratio.
func SizeKey(ratioName, sizeName string) string {
	return ratioName + "|" + sizeName
}

// ResolveDPI returns the DPI for a size and whether an override supplied it.
func (p ProcessingSettings) ResolveDPI(ratioName, sizeName string) (int, DPISource) {
	if dpi, ok := p.DPIOverrides[SizeKey(ratioName, sizeName)]; ok {
		return dpi, DPISourceOverride
	}
	return p.DefaultDPI, DPISourceDefault
}

type Progress struct {
	Current     int    `json:"current"`
	Total       int    `json:"total"`
	CurrentTask string `json:"current_task"`
	IsComplete  bool   `json:"is_complete"`
}

// ItemFailure identifies a (ratio, size) combination that produced no output.
type ItemFailure struct {
	RatioName string `json:"ratio_name"`
	SizeName  string `json:"size_name"`
	Error     string `json:"error"`
}

func (f ItemFailure) String() string {
	return fmt.Sprintf("%s / %s: %s", f.RatioName, f.SizeName, f.Error)
}

type BatchResult struct {
	Images   []DerivedImage
	Failures []ItemFailure
	Total    int
}

// ExportOptions carries the naming and licensing inputs that sit outside the
// pipeline core.
type ExportOptions struct {
	ShopName    string `json:"shop_name" yaml:"shop_name"`
	ArtTitle    string `json:"art_title" yaml:"art_title"`
	LicenseText string `json:"license_text" yaml:"license_text"`
}

type BatchTask struct {
	ID           string             `json:"id"`
	BatchID      string             `json:"batch_id"`
	OriginalPath string             `json:"original_path"`
	Bucket       string             `json:"bucket"`
	Watermark    WatermarkSpec      `json:"watermark"`
	Processing   ProcessingSettings `json:"processing"`
	Export       ExportOptions      `json:"export"`
}

type ProgressEvent struct {
	BatchID  string   `json:"batch_id"`
	Progress Progress `json:"progress"`
}

const (
	KafkaTopicTasks    = "print-batches"
	KafkaTopicProgress = "print-batch-progress"
	KafkaGroupID       = "print-packager-group"
)

const (
	PathPrefixOriginal  = "original/"
	PathPrefixProcessed = "processed/"
)

const (
	DefaultMaxUploadSize    = 256 << 20
	DefaultJPEGQuality      = 0.9
	DefaultDPI              = 600
	DefaultLicenseText      = "Personal Use Only / non-commercial"
	DefaultWatermarkText    = "© Your Name"
	DefaultWatermarkOpacity = 0.5
	SoftwareLabel           = "Etsy Digital Art Packager"
)

func DefaultWatermarkSpec() WatermarkSpec {
	return WatermarkSpec{
		Enabled:         true,
		Text:            DefaultWatermarkText,
		Opacity:         DefaultWatermarkOpacity,
		FontSize:        48,
		Color:           "#ffffff",
		Position:        WatermarkBottomRight,
		RotationDegrees: -45,
		MarginX:         20,
		MarginY:         20,
	}
}

func DefaultProcessingSettings() ProcessingSettings {
	return ProcessingSettings{
		JPEGQuality:  DefaultJPEGQuality,
		DefaultDPI:   DefaultDPI,
		DPIOverrides: map[string]int{},
	}
}

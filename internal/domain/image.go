package domain

import "time"

type Unit string

const (
	UnitInch       Unit = "in"
	UnitMillimeter Unit = "mm"
)

type Size struct {
	Name   string  `yaml:"name" json:"name" validate:"required"`
	Width  float64 `yaml:"width" json:"width" validate:"gt=0"`
	Height float64 `yaml:"height" json:"height" validate:"gt=0"`
	Unit   Unit    `yaml:"unit" json:"unit" validate:"oneof=in mm"`
}

// CropRatio is a named target aspect (width/height) with the physical sizes
// printed at that aspect.
type CropRatio struct {
	Name  string  `yaml:"name" json:"name" validate:"required"`
	Ratio float64 `yaml:"ratio" json:"ratio" validate:"gt=0"`
	Sizes []Size  `yaml:"sizes" json:"sizes" validate:"required,min=1,dive"`
}

type Variant string

const (
	VariantWatermarked Variant = "watermarked"
	VariantFinal       Variant = "final"
)

type DPISource string

const (
	DPISourceDefault  DPISource = "default"
	DPISourceOverride DPISource = "override"
)

// DerivedImage is one encoded output of a batch. Watermarked and final
// siblings share every field except Variant and Data.
type DerivedImage struct {
	RatioName     string
	SizeName      string
	Variant       Variant
	PixelWidth    int
	PixelHeight   int
	NominalWidth  int
	NominalHeight int
	AppliedDPI    int
	DPISource     DPISource
	MimeType      string
	Data          []byte
}

// Clamped reports whether platform raster limits shrank the output below the
// size requested by the physical dimensions and DPI.
func (d *DerivedImage) Clamped() bool {
	return d.PixelWidth != d.NominalWidth || d.PixelHeight != d.NominalHeight
}

type ExportItem struct {
	FileBaseName string
	Variant      Variant
	Data         []byte
	MimeType     string
}

type ImageMetadata struct {
	DPI         int     `json:"dpi"`
	PixelWidth  int     `json:"pixel_width"`
	PixelHeight int     `json:"pixel_height"`
	Variant     Variant `json:"variant"`
	Artist      string  `json:"artist,omitempty"`
	Copyright   string  `json:"copyright"`
	Description string  `json:"description"`
	Software    string  `json:"software"`
}

type RatioSummary struct {
	RatioName string   `json:"ratio_name"`
	Sizes     []string `json:"sizes"`
}

type BatchStatus string

const (
	StatusQueued     BatchStatus = "queued"
	StatusProcessing BatchStatus = "processing"
	StatusCompleted  BatchStatus = "completed"
	StatusFailed     BatchStatus = "failed"
	StatusDeleted    BatchStatus = "deleted"
)

type Batch struct {
	ID               string
	OriginalFilename string
	OriginalSize     int64
	MimeType         string
	Status           BatchStatus
	OriginalPath     string
	Bucket           string
	Progress         Progress
	Error            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StoredImage is the persisted record of a DerivedImage.
type StoredImage struct {
	ID           string
	BatchID      string
	RatioName    string
	SizeName     string
	Variant      Variant
	PixelWidth   int
	PixelHeight  int
	AppliedDPI   int
	DPISource    DPISource
	FileBaseName string
	Path         string
	Size         int64
	MimeType     string
	CreatedAt    time.Time
}

const (
	MimeJPEG     = "image/jpeg"
	ReferenceDPI = 600
)

package dto

import (
	"time"

	"print-packager/internal/domain"
)

type BatchResponse struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename"`
	Status    string          `json:"status"`
	Size      int64           `json:"size"`
	Progress  domain.Progress `json:"progress"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewBatchResponse(b *domain.Batch) BatchResponse {
	return BatchResponse{
		ID:        b.ID,
		Filename:  b.OriginalFilename,
		Status:    string(b.Status),
		Size:      b.OriginalSize,
		Progress:  b.Progress,
		Error:     b.Error,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type ImageResponse struct {
	ID          string `json:"id"`
	RatioName   string `json:"ratio_name"`
	SizeName    string `json:"size_name"`
	Variant     string `json:"variant"`
	PixelWidth  int    `json:"pixel_width"`
	PixelHeight int    `json:"pixel_height"`
	AppliedDPI  int    `json:"applied_dpi"`
	DPISource   string `json:"dpi_source"`
	FileName    string `json:"file_name"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

type ListResponse struct {
	Batches []BatchResponse `json:"batches"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

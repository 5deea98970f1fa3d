package dto

import "print-packager/internal/domain"

// BatchSettings is the optional "settings" form field of an upload. Omitted
// sections fall back to the server defaults.
type BatchSettings struct {
	Watermark  *domain.WatermarkSpec      `json:"watermark,omitempty"`
	Processing *domain.ProcessingSettings `json:"processing,omitempty"`
	Export     *domain.ExportOptions      `json:"export,omitempty"`
}

type ListRequest struct {
	Limit  int `validate:"gte=1,lte=100"`
	Offset int `validate:"gte=0"`
}

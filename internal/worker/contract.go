package worker

import (
	"context"
	"image"
	"io"

	"print-packager/internal/domain"
	"print-packager/internal/usecase/processor"
)

type batchRepository interface {
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMsg string) error
	UpdateProgress(ctx context.Context, id string, p domain.Progress) error
	SaveImages(ctx context.Context, imgs []*domain.StoredImage) error
	DeleteSizeImages(ctx context.Context, batchID, ratioName, sizeName string) error
}

type fileRepository interface {
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
	SaveProcessed(ctx context.Context, path string, data io.ReadSeeker, size int64, contentType string) error
	DeleteObject(ctx context.Context, path string) error
}

type progressPublisher interface {
	SendProgress(ctx context.Context, event domain.ProgressEvent) error
}

type generator interface {
	Generate(ctx context.Context, src image.Image, wm domain.WatermarkSpec, settings domain.ProcessingSettings, onProgress processor.ProgressFunc) (*domain.BatchResult, error)
}

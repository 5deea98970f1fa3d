package batch

import (
	"context"
	"io"

	"print-packager/internal/domain"
	batch_uc "print-packager/internal/usecase/batch"
)

type batchUsecase interface {
	Create(ctx context.Context, req batch_uc.UploadRequest) (*domain.Batch, error)
	Get(ctx context.Context, id string) (*domain.Batch, error)
	List(ctx context.Context, limit, offset int) ([]domain.Batch, error)
	Images(ctx context.Context, batchID string) ([]domain.StoredImage, error)
	OpenImage(ctx context.Context, batchID, imageID string) (*domain.StoredImage, io.ReadCloser, error)
	Summary() []domain.RatioSummary
	Delete(ctx context.Context, id string) error
}

type progressHub interface {
	Subscribe(batchID string) (<-chan domain.Progress, func())
}

package batch

import (
	"context"
	"io"

	"print-packager/internal/domain"
)

type batchRepository interface {
	Save(ctx context.Context, b *domain.Batch) error
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	List(ctx context.Context, limit, offset int) ([]domain.Batch, error)
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMsg string) error
	Delete(ctx context.Context, id string) error
	GetImages(ctx context.Context, batchID string) ([]domain.StoredImage, error)
	GetImage(ctx context.Context, batchID, imageID string) (*domain.StoredImage, error)
	DeleteImages(ctx context.Context, batchID string) error
}

type fileRepository interface {
	SaveOriginal(ctx context.Context, batchID, filename string, data io.ReadSeeker, size int64, contentType string) (string, error)
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, path string) error
	DeleteObjectsWithPrefix(ctx context.Context, prefix string) error
	Bucket() string
}

type taskProducer interface {
	SendTask(ctx context.Context, task *domain.BatchTask) error
}

package batch

import (
	"context"
	"io"

	"print-packager/internal/domain"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Save(ctx context.Context, b *domain.Batch) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*domain.Batch)
	return b, args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]domain.Batch, error) {
	args := m.Called(ctx, limit, offset)
	b, _ := args.Get(0).([]domain.Batch)
	return b, args.Error(1)
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMsg string) error {
	return m.Called(ctx, id, status, errMsg).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) GetImages(ctx context.Context, batchID string) ([]domain.StoredImage, error) {
	args := m.Called(ctx, batchID)
	imgs, _ := args.Get(0).([]domain.StoredImage)
	return imgs, args.Error(1)
}

func (m *mockRepo) GetImage(ctx context.Context, batchID, imageID string) (*domain.StoredImage, error) {
	args := m.Called(ctx, batchID, imageID)
	img, _ := args.Get(0).(*domain.StoredImage)
	return img, args.Error(1)
}

func (m *mockRepo) DeleteImages(ctx context.Context, batchID string) error {
	return m.Called(ctx, batchID).Error(0)
}

type mockFiles struct {
	mock.Mock
}

func (m *mockFiles) SaveOriginal(ctx context.Context, batchID, filename string, data io.ReadSeeker, size int64, contentType string) (string, error) {
	args := m.Called(ctx, batchID, filename, data, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockFiles) GetObject(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockFiles) DeleteObject(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *mockFiles) DeleteObjectsWithPrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}

func (m *mockFiles) Bucket() string {
	return "print-batches"
}

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) SendTask(ctx context.Context, task *domain.BatchTask) error {
	return m.Called(ctx, task).Error(0)
}

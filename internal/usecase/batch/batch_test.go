package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"print-packager/internal/catalog"
	"print-packager/internal/domain"
	repoBatch "print-packager/internal/repository/batch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fixture struct {
	repo     *mockRepo
	files    *mockFiles
	producer *mockProducer
	uc       *BatchUsecase
}

func newFixture() *fixture {
	zlog.Init()
	f := &fixture{repo: &mockRepo{}, files: &mockFiles{}, producer: &mockProducer{}}
	defaults := Defaults{
		Watermark:  domain.DefaultWatermarkSpec(),
		Processing: domain.DefaultProcessingSettings(),
		Export:     domain.ExportOptions{LicenseText: domain.DefaultLicenseText},
	}
	f.uc = NewBatchUsecase(f.repo, f.files, f.producer, catalog.Default(), defaults, 1024, &zlog.Logger)
	return f
}

func upload(size int64, contentType string) UploadRequest {
	return UploadRequest{
		File:        bytes.NewReader(make([]byte, size)),
		Filename:    "art.png",
		ContentType: contentType,
		Size:        size,
	}
}

func TestCreateQueuesBatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.files.On("SaveOriginal", ctx, mock.Anything, "art.png", mock.Anything, int64(100), "image/png").
		Return("original/x/source.png", nil)
	f.repo.On("Save", ctx, mock.MatchedBy(func(b *domain.Batch) bool {
		return b.Status == domain.StatusQueued && b.Progress.Total == 12 && b.OriginalPath == "original/x/source.png"
	})).Return(nil)
	f.producer.On("SendTask", ctx, mock.MatchedBy(func(task *domain.BatchTask) bool {
		return task.OriginalPath == "original/x/source.png" &&
			task.Bucket == "print-batches" &&
			task.Processing.DefaultDPI == domain.DefaultDPI &&
			task.Watermark.Text == domain.DefaultWatermarkText
	})).Return(nil)

	b, err := f.uc.Create(ctx, upload(100, "image/png"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, b.Status)
	assert.NotEmpty(t, b.ID)

	f.files.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestCreateRejectsBadUploads(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.Create(ctx, upload(100, "application/pdf"))
	assert.ErrorIs(t, err, ErrInvalidFileFormat)

	_, err = f.uc.Create(ctx, upload(0, "image/png"))
	assert.ErrorIs(t, err, ErrInvalidFileFormat)

	_, err = f.uc.Create(ctx, upload(4096, "image/png"))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	req := upload(10, "image/jpeg")
	req.Processing = &domain.ProcessingSettings{JPEGQuality: 0.9, DefaultDPI: 600, DPIOverrides: map[string]int{"Nope|4x6 in": 300}}
	_, err = f.uc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	req = upload(10, "image/jpeg")
	req.Processing = &domain.ProcessingSettings{JPEGQuality: 2, DefaultDPI: 600}
	_, err = f.uc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	wm := domain.DefaultWatermarkSpec()
	wm.Color = "not-a-color"
	req = upload(10, "image/jpeg")
	req.Watermark = &wm
	_, err = f.uc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	f.files.AssertNotCalled(t, "SaveOriginal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateMarksFailedWhenQueueIsDown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.files.On("SaveOriginal", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("p", nil)
	f.repo.On("Save", ctx, mock.Anything).Return(nil)
	f.producer.On("SendTask", ctx, mock.Anything).Return(errors.New("broker down"))
	f.repo.On("UpdateStatus", ctx, mock.Anything, domain.StatusFailed, mock.Anything).Return(nil)

	_, err := f.uc.Create(ctx, upload(10, "image/jpeg"))
	assert.ErrorIs(t, err, ErrMessageQueueError)
	f.repo.AssertCalled(t, "UpdateStatus", ctx, mock.Anything, domain.StatusFailed, mock.Anything)
}

func TestCreateCleansUpWhenDatabaseFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.files.On("SaveOriginal", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("p", nil)
	f.repo.On("Save", ctx, mock.Anything).Return(errors.New("db down"))
	f.files.On("DeleteObject", ctx, "p").Return(nil)

	_, err := f.uc.Create(ctx, upload(10, "image/jpeg"))
	assert.ErrorIs(t, err, ErrDatabaseError)
	f.files.AssertCalled(t, "DeleteObject", ctx, "p")
	f.producer.AssertNotCalled(t, "SendTask", mock.Anything, mock.Anything)
}

func TestGetMapsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.repo.On("GetByID", ctx, "missing").Return(nil, repoBatch.ErrBatchNotFound)

	_, err := f.uc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestOpenImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "b1").Return(&domain.Batch{ID: "b1"}, nil)
	f.repo.On("GetImage", ctx, "b1", "i1").Return(&domain.StoredImage{ID: "i1", Path: "processed/b1/final/a.jpg"}, nil)
	f.repo.On("GetImage", ctx, "b1", "i2").Return(nil, repoBatch.ErrImageNotFound)
	f.files.On("GetObject", ctx, "processed/b1/final/a.jpg").Return(io.NopCloser(strings.NewReader("jpeg")), nil)

	img, rc, err := f.uc.OpenImage(ctx, "b1", "i1")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "i1", img.ID)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "jpeg", string(data))

	_, _, err = f.uc.OpenImage(ctx, "b1", "i2")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, "b1").Return(&domain.Batch{ID: "b1", OriginalPath: "original/b1/source.png"}, nil)
	f.files.On("DeleteObject", ctx, "original/b1/source.png").Return(nil)
	f.files.On("DeleteObjectsWithPrefix", ctx, "processed/b1/").Return(errors.New("partial"))
	f.repo.On("DeleteImages", ctx, "b1").Return(nil)
	f.repo.On("Delete", ctx, "b1").Return(nil)

	require.NoError(t, f.uc.Delete(ctx, "b1"))
	f.repo.AssertExpectations(t)
	f.files.AssertExpectations(t)
}

func TestSummary(t *testing.T) {
	f := newFixture()
	summary := f.uc.Summary()
	require.Len(t, summary, 6)
	assert.Equal(t, "Special Fine Art", summary[5].RatioName)
}

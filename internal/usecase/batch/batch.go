package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"print-packager/internal/catalog"
	"print-packager/internal/domain"
	repoBatch "print-packager/internal/repository/batch"
	"print-packager/internal/usecase/processor"
	"print-packager/internal/usecase/processor/operations"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

var supportedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/bmp":  {},
	"image/tiff": {},
}

// Defaults fill the parts of an upload the client leaves out.
type Defaults struct {
	Watermark  domain.WatermarkSpec
	Processing domain.ProcessingSettings
	Export     domain.ExportOptions
}

type UploadRequest struct {
	File        io.ReadSeeker
	Filename    string
	ContentType string
	Size        int64
	Watermark   *domain.WatermarkSpec
	Processing  *domain.ProcessingSettings
	Export      *domain.ExportOptions
}

type BatchUsecase struct {
	repo          batchRepository
	fileRepo      fileRepository
	producer      taskProducer
	catalog       *catalog.Catalog
	defaults      Defaults
	maxUploadSize int64
	validate      *validator.Validate
	logger        *zlog.Zerolog
}

func NewBatchUsecase(repo batchRepository, fileRepo fileRepository, producer taskProducer, cat *catalog.Catalog, defaults Defaults, maxUploadSize int64, logger *zlog.Zerolog) *BatchUsecase {
	return &BatchUsecase{
		repo:          repo,
		fileRepo:      fileRepo,
		producer:      producer,
		catalog:       cat,
		defaults:      defaults,
		maxUploadSize: maxUploadSize,
		validate:      operations.NewValidator(),
		logger:        logger,
	}
}

// Create stores the source, records a queued batch and enqueues its task.
func (u *BatchUsecase) Create(ctx context.Context, req UploadRequest) (*domain.Batch, error) {
	if _, ok := supportedTypes[req.ContentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileFormat, req.ContentType)
	}
	if req.Size <= 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidFileFormat)
	}
	if u.maxUploadSize > 0 && req.Size > u.maxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, req.Size)
	}

	task, err := u.buildTask(req)
	if err != nil {
		return nil, err
	}

	originalPath, err := u.fileRepo.SaveOriginal(ctx, task.BatchID, req.Filename, req.File, req.Size, req.ContentType)
	if err != nil {
		u.logger.Error().Err(err).Str("filename", req.Filename).Msg("Failed to save original image")
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}
	task.OriginalPath = originalPath
	task.Bucket = u.fileRepo.Bucket()

	now := time.Now()
	b := &domain.Batch{
		ID:               task.BatchID,
		OriginalFilename: req.Filename,
		OriginalSize:     req.Size,
		MimeType:         req.ContentType,
		Status:           domain.StatusQueued,
		OriginalPath:     originalPath,
		Bucket:           task.Bucket,
		Progress:         domain.Progress{Total: u.catalog.TotalSizes()},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := u.repo.Save(ctx, b); err != nil {
		if delErr := u.fileRepo.DeleteObject(ctx, originalPath); delErr != nil {
			u.logger.Error().Err(delErr).Str("path", originalPath).Msg("Failed to clean up original image")
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if err := u.producer.SendTask(ctx, task); err != nil {
		u.logger.Error().Err(err).Str("batch_id", b.ID).Msg("Failed to send task to Kafka")
		if updErr := u.repo.UpdateStatus(ctx, b.ID, domain.StatusFailed, "failed to enqueue batch"); updErr != nil {
			u.logger.Error().Err(updErr).Str("batch_id", b.ID).Msg("Failed to update status")
		}
		return nil, fmt.Errorf("%w: %v", ErrMessageQueueError, err)
	}

	u.logger.Info().
		Str("batch_id", b.ID).
		Str("filename", req.Filename).
		Int("total", b.Progress.Total).
		Msg("Batch queued for processing")

	return b, nil
}

func (u *BatchUsecase) buildTask(req UploadRequest) (*domain.BatchTask, error) {
	wm := u.defaults.Watermark
	if req.Watermark != nil {
		wm = *req.Watermark
	}
	settings := u.defaults.Processing
	if req.Processing != nil {
		settings = *req.Processing
	}
	export := u.defaults.Export
	if req.Export != nil {
		export = *req.Export
	}

	if err := u.validate.Struct(wm); err != nil {
		return nil, fmt.Errorf("%w: watermark: %v", ErrInvalidSettings, err)
	}
	if err := u.validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("%w: processing: %v", ErrInvalidSettings, err)
	}

	known := make(map[string]struct{}, u.catalog.TotalSizes())
	for _, k := range u.catalog.SizeKeys() {
		known[k] = struct{}{}
	}
	for k := range settings.DPIOverrides {
		if _, ok := known[k]; !ok {
			return nil, fmt.Errorf("%w: unknown dpi override %q", ErrInvalidSettings, k)
		}
	}

	return &domain.BatchTask{
		ID:         uuid.New().String(),
		BatchID:    uuid.New().String(),
		Watermark:  wm,
		Processing: settings,
		Export:     export,
	}, nil
}

func (u *BatchUsecase) Get(ctx context.Context, id string) (*domain.Batch, error) {
	b, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return b, nil
}

func (u *BatchUsecase) List(ctx context.Context, limit, offset int) ([]domain.Batch, error) {
	batches, err := u.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return batches, nil
}

func (u *BatchUsecase) Images(ctx context.Context, batchID string) ([]domain.StoredImage, error) {
	if _, err := u.Get(ctx, batchID); err != nil {
		return nil, err
	}

	images, err := u.repo.GetImages(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return images, nil
}

// OpenImage returns the record of one derived image and a reader of its
// bytes. The caller closes the reader.
func (u *BatchUsecase) OpenImage(ctx context.Context, batchID, imageID string) (*domain.StoredImage, io.ReadCloser, error) {
	if _, err := u.Get(ctx, batchID); err != nil {
		return nil, nil, err
	}

	img, err := u.repo.GetImage(ctx, batchID, imageID)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	reader, err := u.fileRepo.GetObject(ctx, img.Path)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	return img, reader, nil
}

func (u *BatchUsecase) Summary() []domain.RatioSummary {
	return processor.Summarize(u.catalog)
}

func (u *BatchUsecase) Delete(ctx context.Context, id string) error {
	b, err := u.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := u.fileRepo.DeleteObject(ctx, b.OriginalPath); err != nil {
		u.logger.Error().Err(err).Str("path", b.OriginalPath).Msg("Failed to delete original file")
	}

	prefix := path.Join(domain.PathPrefixProcessed, id) + "/"
	if err := u.fileRepo.DeleteObjectsWithPrefix(ctx, prefix); err != nil {
		u.logger.Error().Err(err).Str("prefix", prefix).Msg("Failed to delete processed files")
	}

	if err := u.repo.DeleteImages(ctx, id); err != nil {
		u.logger.Error().Err(err).Str("batch_id", id).Msg("Failed to delete derived images from DB")
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	u.logger.Info().Str("batch_id", id).Msg("Batch deleted")
	return nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repoBatch.ErrBatchNotFound):
		return ErrBatchNotFound
	case errors.Is(err, repoBatch.ErrImageNotFound), errors.Is(err, repoBatch.ErrFileNotFound):
		return ErrImageNotFound
	case errors.Is(err, repoBatch.ErrStorageError):
		return fmt.Errorf("%w: %v", ErrStorageError, err)
	default:
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
}

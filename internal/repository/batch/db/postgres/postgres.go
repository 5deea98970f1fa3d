package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"print-packager/internal/domain"
	"print-packager/internal/repository/batch"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type BatchRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewBatchRepository(db *dbpg.DB, retries retry.Strategy) *BatchRepository {
	return &BatchRepository{
		db:      db,
		retries: retries,
	}
}

const batchColumns = `
	id, original_filename, original_size, mime_type, status,
	original_path, bucket, progress_current, progress_total,
	progress_task, progress_complete, error, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(s scanner) (*domain.Batch, error) {
	var b domain.Batch
	err := s.Scan(
		&b.ID,
		&b.OriginalFilename,
		&b.OriginalSize,
		&b.MimeType,
		&b.Status,
		&b.OriginalPath,
		&b.Bucket,
		&b.Progress.Current,
		&b.Progress.Total,
		&b.Progress.CurrentTask,
		&b.Progress.IsComplete,
		&b.Error,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepository) Save(ctx context.Context, b *domain.Batch) error {
	query := `
		INSERT INTO batches (` + batchColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		b.ID,
		b.OriginalFilename,
		b.OriginalSize,
		b.MimeType,
		b.Status,
		b.OriginalPath,
		b.Bucket,
		b.Progress.Current,
		b.Progress.Total,
		b.Progress.CurrentTask,
		b.Progress.IsComplete,
		b.Error,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1 AND status != $2`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id, domain.StatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}

	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, batch.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan batch: %w", err)
	}

	return b, nil
}

func (r *BatchRepository) List(ctx context.Context, limit, offset int) ([]domain.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE status != $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, domain.StatusDeleted, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batches: %w", err)
	}

	return batches, nil
}

func (r *BatchRepository) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMsg string) error {
	query := `UPDATE batches SET status = $1, error = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, status, errMsg, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	return expectAffected(result, batch.ErrBatchNotFound)
}

func (r *BatchRepository) UpdateProgress(ctx context.Context, id string, p domain.Progress) error {
	query := `
		UPDATE batches
		SET progress_current = $1, progress_total = $2, progress_task = $3,
		    progress_complete = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query,
		p.Current, p.Total, p.CurrentTask, p.IsComplete, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}

	return expectAffected(result, batch.ErrBatchNotFound)
}

func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, domain.StatusDeleted, "")
}

// SaveImages records the outputs of one size in a single statement, so either
// every row lands or none does. A repeated output replaces the earlier row.
func (r *BatchRepository) SaveImages(ctx context.Context, imgs []*domain.StoredImage) error {
	if len(imgs) == 0 {
		return nil
	}

	const fields = 14
	now := time.Now()
	values := make([]string, 0, len(imgs))
	args := make([]any, 0, len(imgs)*fields)

	for i, img := range imgs {
		if img.ID == "" {
			img.ID = uuid.New().String()
		}
		img.CreatedAt = now

		ph := make([]string, fields)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*fields+j+1)
		}
		values = append(values, "("+strings.Join(ph, ", ")+")")

		args = append(args,
			img.ID,
			img.BatchID,
			img.RatioName,
			img.SizeName,
			img.Variant,
			img.PixelWidth,
			img.PixelHeight,
			img.AppliedDPI,
			img.DPISource,
			img.FileBaseName,
			img.Path,
			img.Size,
			img.MimeType,
			img.CreatedAt,
		)
	}

	query := `
		INSERT INTO derived_images (
			id, batch_id, ratio_name, size_name, variant,
			pixel_width, pixel_height, applied_dpi, dpi_source,
			file_base_name, path, size, mime_type, created_at
		) VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (batch_id, ratio_name, size_name, variant) DO UPDATE SET
			pixel_width = EXCLUDED.pixel_width,
			pixel_height = EXCLUDED.pixel_height,
			applied_dpi = EXCLUDED.applied_dpi,
			dpi_source = EXCLUDED.dpi_source,
			file_base_name = EXCLUDED.file_base_name,
			path = EXCLUDED.path,
			size = EXCLUDED.size,
			mime_type = EXCLUDED.mime_type,
			created_at = EXCLUDED.created_at
	`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query, args...); err != nil {
		return fmt.Errorf("failed to save derived images: %w", err)
	}

	return nil
}

func (r *BatchRepository) DeleteSizeImages(ctx context.Context, batchID, ratioName, sizeName string) error {
	query := `DELETE FROM derived_images WHERE batch_id = $1 AND ratio_name = $2 AND size_name = $3`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query, batchID, ratioName, sizeName); err != nil {
		return fmt.Errorf("failed to delete derived images of size: %w", err)
	}

	return nil
}

const imageColumns = `
	id, batch_id, ratio_name, size_name, variant,
	pixel_width, pixel_height, applied_dpi, dpi_source,
	file_base_name, path, size, mime_type, created_at`

func scanImage(s scanner) (*domain.StoredImage, error) {
	var img domain.StoredImage
	err := s.Scan(
		&img.ID,
		&img.BatchID,
		&img.RatioName,
		&img.SizeName,
		&img.Variant,
		&img.PixelWidth,
		&img.PixelHeight,
		&img.AppliedDPI,
		&img.DPISource,
		&img.FileBaseName,
		&img.Path,
		&img.Size,
		&img.MimeType,
		&img.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// GetImages returns the derived images of a batch in generation order.
func (r *BatchRepository) GetImages(ctx context.Context, batchID string) ([]domain.StoredImage, error) {
	query := `SELECT ` + imageColumns + ` FROM derived_images WHERE batch_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query derived images: %w", err)
	}
	defer rows.Close()

	var images []domain.StoredImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan derived image: %w", err)
		}
		images = append(images, *img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating derived images: %w", err)
	}

	return images, nil
}

func (r *BatchRepository) GetImage(ctx context.Context, batchID, imageID string) (*domain.StoredImage, error) {
	query := `SELECT ` + imageColumns + ` FROM derived_images WHERE batch_id = $1 AND id = $2`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, batchID, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query derived image: %w", err)
	}

	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, batch.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan derived image: %w", err)
	}

	return img, nil
}

func (r *BatchRepository) DeleteImages(ctx context.Context, batchID string) error {
	query := `DELETE FROM derived_images WHERE batch_id = $1`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query, batchID); err != nil {
		return fmt.Errorf("failed to delete derived images: %w", err)
	}

	return nil
}

func expectAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"print-packager/internal/config"
	"print-packager/internal/domain"
	"print-packager/internal/repository/batch"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type FileRepository struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewMinIORepository(cfg *config.Config, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	r := &FileRepository{
		client:  client,
		bucket:  cfg.Minio.Bucket,
		retries: retries,
		logger:  logger,
	}

	if err := r.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *FileRepository) Bucket() string {
	return r.bucket
}

func (r *FileRepository) ensureBucket(ctx context.Context) error {
	return retry.Do(func() error {
		exists, err := r.client.BucketExists(ctx, r.bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket: %w", err)
		}
		if exists {
			return nil
		}
		if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", r.bucket, err)
		}
		r.logger.Info().Str("bucket", r.bucket).Msg("Bucket created")
		return nil
	}, r.retries)
}

// OriginalPath is where the uploaded source of a batch is stored.
func OriginalPath(batchID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return path.Join(domain.PathPrefixOriginal, batchID, "source"+ext)
}

// ProcessedPath is where one derived image of a batch is stored.
func ProcessedPath(batchID string, variant domain.Variant, fileName string) string {
	return path.Join(domain.PathPrefixProcessed, batchID, string(variant), fileName)
}

func (r *FileRepository) SaveOriginal(ctx context.Context, batchID, filename string, data io.ReadSeeker, size int64, contentType string) (string, error) {
	p := OriginalPath(batchID, filename)
	if err := r.put(ctx, p, data, size, contentType); err != nil {
		return "", err
	}
	return p, nil
}

func (r *FileRepository) SaveProcessed(ctx context.Context, p string, data io.ReadSeeker, size int64, contentType string) error {
	return r.put(ctx, p, data, size, contentType)
}

func (r *FileRepository) put(ctx context.Context, p string, data io.ReadSeeker, size int64, contentType string) error {
	err := retry.Do(func() error {
		if _, err := data.Seek(0, io.SeekStart); err != nil {
			return err
		}
		_, err := r.client.PutObject(ctx, r.bucket, p, data, size, minio.PutObjectOptions{ContentType: contentType})
		return err
	}, r.retries)
	if err != nil {
		r.logger.Error().Err(err).Str("path", p).Msg("Failed to upload object")
		return fmt.Errorf("%w: put %s: %v", batch.ErrStorageError, p, err)
	}
	return nil
}

func (r *FileRepository) GetObject(ctx context.Context, p string) (io.ReadCloser, error) {
	var obj *minio.Object
	err := retry.Do(func() error {
		o, err := r.client.GetObject(ctx, r.bucket, p, minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		if _, err := o.Stat(); err != nil {
			o.Close()
			return err
		}
		obj = o
		return nil
	}, r.retries)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, batch.ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: get %s: %v", batch.ErrStorageError, p, err)
	}
	return obj, nil
}

func (r *FileRepository) DeleteObject(ctx context.Context, p string) error {
	err := retry.Do(func() error {
		return r.client.RemoveObject(ctx, r.bucket, p, minio.RemoveObjectOptions{})
	}, r.retries)
	if err != nil {
		return fmt.Errorf("%w: remove %s: %v", batch.ErrStorageError, p, err)
	}
	return nil
}

func (r *FileRepository) DeleteObjectsWithPrefix(ctx context.Context, prefix string) error {
	objects := r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})

	var errs []error
	for res := range r.client.RemoveObjects(ctx, r.bucket, objects, minio.RemoveObjectsOptions{}) {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", res.ObjectName, res.Err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", batch.ErrStorageError, errors.Join(errs...))
	}
	return nil
}

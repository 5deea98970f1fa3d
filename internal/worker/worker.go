package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"print-packager/internal/broker"
	"print-packager/internal/domain"
	minio_repo "print-packager/internal/repository/batch/cloud/minio"
	"print-packager/internal/usecase/processor"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	// Source formats accepted for a batch.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable marks a source that no registered decoder accepts.
var ErrUndecodable = errors.New("source image cannot be decoded")

// Worker consumes batch tasks and runs them through the generator with a
// fixed pool of goroutines.
type Worker struct {
	consumer    broker.Consumer
	repo        batchRepository
	fileRepo    fileRepository
	progress    progressPublisher
	generator   generator
	retries     retry.Strategy
	concurrency int
	logger      *zlog.Zerolog
	wg          sync.WaitGroup
}

func New(consumer broker.Consumer, repo batchRepository, fileRepo fileRepository, progress progressPublisher, gen generator, retries retry.Strategy, concurrency int, logger *zlog.Zerolog) *Worker {
	return &Worker{
		consumer:    consumer,
		repo:        repo,
		fileRepo:    fileRepo,
		progress:    progress,
		generator:   gen,
		retries:     retries,
		concurrency: max(1, concurrency),
		logger:      logger,
	}
}

// Run blocks until ctx is done and every in-flight task has returned.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("Starting worker")

	messages := make(chan *broker.Message, w.concurrency*2)
	w.consumer.Start(ctx, messages, w.retries)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}

	w.logger.Info().Msg("Worker started successfully")
	<-ctx.Done()

	w.logger.Info().Msg("Shutting down worker gracefully...")
	w.wg.Wait()
	w.logger.Info().Msg("Worker stopped gracefully")
	return nil
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan *broker.Message) {
	w.logger.Debug().Int("worker_id", id).Msg("Worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			w.handle(ctx, id, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, id int, msg *broker.Message) {
	startTime := time.Now()
	w.logger.Debug().Int("worker_id", id).Int("message_size", len(msg.Value)).Msg("Processing message")

	if err := w.safeProcessMessage(ctx, id, msg); err != nil {
		w.logger.Error().
			Err(err).
			Int("worker_id", id).
			Int64("offset", msg.Offset).
			Msg("Failed to process message")
		return
	}

	if err := w.consumer.Commit(ctx, msg); err != nil {
		w.logger.Error().
			Err(err).
			Int64("offset", msg.Offset).
			Int("worker_id", id).
			Msg("Failed to commit message after successful processing")
		return
	}

	w.logger.Debug().
		Int("worker_id", id).
		Int64("offset", msg.Offset).
		Dur("duration", time.Since(startTime)).
		Msg("Message processed and committed successfully")
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg *broker.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

// processMessage returns an error only when the task should be delivered
// again. Tasks that can never succeed are marked failed and acknowledged.
func (w *Worker) processMessage(ctx context.Context, msg *broker.Message) error {
	var task domain.BatchTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to unmarshal task, skipping")
		return nil
	}

	w.logger.Info().
		Str("batch_id", task.BatchID).
		Str("original_path", task.OriginalPath).
		Msg("Processing batch")

	if err := w.repo.UpdateStatus(ctx, task.BatchID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to update status to processing: %w", err)
	}

	src, err := w.load(ctx, task.OriginalPath)
	if err != nil {
		if errors.Is(err, ErrUndecodable) {
			w.fail(ctx, task.BatchID, err.Error())
			return nil
		}
		return err
	}

	var final *domain.Progress
	onProgress := func(p domain.Progress) {
		if p.IsComplete {
			// Held back until the outputs are stored.
			final = &p
			return
		}
		w.publish(ctx, task.BatchID, p)
	}

	result, err := w.generator.Generate(ctx, src, task.Watermark, task.Processing, onProgress)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		w.fail(ctx, task.BatchID, err.Error())
		return nil
	}

	stored, storeFailures := w.store(ctx, &task, result)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	failures := append(append([]domain.ItemFailure(nil), result.Failures...), storeFailures...)

	if stored == 0 {
		w.fail(ctx, task.BatchID, failureSummary(failures, "no images were produced"))
	} else {
		errMsg := ""
		if len(failures) > 0 {
			errMsg = failureSummary(failures, "")
		}
		if err := w.repo.UpdateStatus(ctx, task.BatchID, domain.StatusCompleted, errMsg); err != nil {
			w.logger.Error().Err(err).Str("batch_id", task.BatchID).Msg("Failed to update status to completed")
		}
	}

	if final == nil {
		final = &domain.Progress{Current: result.Total, Total: result.Total, IsComplete: true}
	}
	w.publish(ctx, task.BatchID, *final)

	w.logger.Info().
		Str("batch_id", task.BatchID).
		Int("images", stored).
		Int("failures", len(failures)).
		Msg("Batch processing finished")

	return nil
}

func (w *Worker) load(ctx context.Context, path string) (image.Image, error) {
	reader, err := w.fileRepo.GetObject(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get original image: %w", err)
	}
	defer reader.Close()

	src, format, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	w.logger.Debug().
		Str("format", format).
		Int("width", src.Bounds().Dx()).
		Int("height", src.Bounds().Dy()).
		Msg("Source image decoded")
	return src, nil
}

// store uploads and records the outputs of each size as one unit. A size whose
// outputs cannot all be stored is rolled back and reported as a failure. It
// returns how many images made it to both the object store and the database.
func (w *Worker) store(ctx context.Context, task *domain.BatchTask, result *domain.BatchResult) (int, []domain.ItemFailure) {
	stored := 0
	var failures []domain.ItemFailure

	for _, group := range groupBySize(result.Images) {
		if ctx.Err() != nil {
			return stored, failures
		}

		if err := w.storeSize(ctx, task, group); err != nil {
			w.logger.Error().
				Err(err).
				Str("batch_id", task.BatchID).
				Str("ratio", group[0].RatioName).
				Str("size", group[0].SizeName).
				Msg("Failed to store size outputs")
			failures = append(failures, domain.ItemFailure{
				RatioName: group[0].RatioName,
				SizeName:  group[0].SizeName,
				Error:     err.Error(),
			})
			continue
		}
		stored += len(group)
	}

	return stored, failures
}

func (w *Worker) storeSize(ctx context.Context, task *domain.BatchTask, group []domain.DerivedImage) error {
	records := make([]*domain.StoredImage, 0, len(group))
	for _, img := range group {
		base := processor.FileBaseName(task.Export, img.RatioName, img.SizeName)
		name := base + processor.VariantSuffix(img.Variant) + ".jpg"
		records = append(records, &domain.StoredImage{
			BatchID:      task.BatchID,
			RatioName:    img.RatioName,
			SizeName:     img.SizeName,
			Variant:      img.Variant,
			PixelWidth:   img.PixelWidth,
			PixelHeight:  img.PixelHeight,
			AppliedDPI:   img.AppliedDPI,
			DPISource:    img.DPISource,
			FileBaseName: base,
			Path:         minio_repo.ProcessedPath(task.BatchID, img.Variant, name),
			Size:         int64(len(img.Data)),
			MimeType:     img.MimeType,
		})
	}

	for i, img := range group {
		err := w.fileRepo.SaveProcessed(ctx, records[i].Path, bytes.NewReader(img.Data), records[i].Size, img.MimeType)
		if err != nil {
			w.rollback(ctx, task.BatchID, records)
			return fmt.Errorf("failed to upload %s image: %w", img.Variant, err)
		}
	}

	if err := w.repo.SaveImages(ctx, records); err != nil {
		w.rollback(ctx, task.BatchID, records)
		return fmt.Errorf("failed to record images: %w", err)
	}

	return nil
}

// rollback removes every object and row of a size, including ones left by an
// earlier delivery of the same task.
func (w *Worker) rollback(ctx context.Context, batchID string, records []*domain.StoredImage) {
	ctx = context.WithoutCancel(ctx)

	for _, rec := range records {
		if err := w.fileRepo.DeleteObject(ctx, rec.Path); err != nil {
			w.logger.Warn().Err(err).Str("path", rec.Path).Msg("Failed to remove partial output")
		}
	}

	rec := records[0]
	if err := w.repo.DeleteSizeImages(ctx, batchID, rec.RatioName, rec.SizeName); err != nil {
		w.logger.Warn().Err(err).Str("batch_id", batchID).Msg("Failed to remove partial output records")
	}
}

// groupBySize splits images into runs sharing a ratio and size, keeping the
// generation order.
func groupBySize(images []domain.DerivedImage) [][]domain.DerivedImage {
	var groups [][]domain.DerivedImage
	index := make(map[[2]string]int)

	for _, img := range images {
		key := [2]string{img.RatioName, img.SizeName}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], img)
	}

	return groups
}

func (w *Worker) publish(ctx context.Context, batchID string, p domain.Progress) {
	if err := w.repo.UpdateProgress(ctx, batchID, p); err != nil {
		w.logger.Warn().Err(err).Str("batch_id", batchID).Msg("Failed to persist progress")
	}
	if err := w.progress.SendProgress(ctx, domain.ProgressEvent{BatchID: batchID, Progress: p}); err != nil {
		w.logger.Warn().Err(err).Str("batch_id", batchID).Msg("Failed to publish progress")
	}
}

func (w *Worker) fail(ctx context.Context, batchID, reason string) {
	w.logger.Error().Str("batch_id", batchID).Str("reason", reason).Msg("Batch failed")
	if err := w.repo.UpdateStatus(ctx, batchID, domain.StatusFailed, reason); err != nil {
		w.logger.Error().Err(err).Str("batch_id", batchID).Msg("Failed to update status to failed")
	}
}

func failureSummary(failures []domain.ItemFailure, fallback string) string {
	if len(failures) == 0 {
		return fallback
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%d size(s) failed: %s", len(failures), strings.Join(parts, "; "))
}

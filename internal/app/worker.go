package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "print-packager/internal/broker/kafka"
	"print-packager/internal/config"
	minio_repo "print-packager/internal/repository/batch/cloud/minio"
	postgres_repo "print-packager/internal/repository/batch/db/postgres"
	"print-packager/internal/worker"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// WorkerApp runs batch tasks pulled from Kafka.
type WorkerApp struct {
	cfg    *config.Config
	logger *zlog.Zerolog
	db     *dbpg.DB
	kafka  *kafka_impl.KafkaClient
	worker *worker.Worker
}

func NewWorkerApp(cfg *config.Config, logger *zlog.Zerolog) (*WorkerApp, error) {
	retries := cfg.DefaultRetryStrategy()

	pipeline, err := NewPipeline(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	fileRepo, err := minio_repo.NewMinIORepository(cfg, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	batchRepo := postgres_repo.NewBatchRepository(db, retries)
	client := kafka_impl.NewKafkaClient(cfg)

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.TasksTopic).
		Str("group", cfg.Kafka.GroupID).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("Worker configuration")

	w := worker.New(client.Tasks, batchRepo, fileRepo, client.Progress, pipeline.Generator, retries, cfg.Worker.Concurrency, logger)

	return &WorkerApp{
		cfg:    cfg,
		logger: logger,
		db:     db,
		kafka:  client,
		worker: w,
	}, nil
}

func (a *WorkerApp) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := a.worker.Run(ctx)

	if a.db != nil && a.db.Master != nil {
		a.db.Master.Close()
	}
	if err := a.kafka.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close kafka clients")
	}

	return err
}

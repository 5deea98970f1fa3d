package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"print-packager/internal/broker"
	kafka_impl "print-packager/internal/broker/kafka"
	"print-packager/internal/config"
	"print-packager/internal/domain"
	batch_h "print-packager/internal/http-server/handler/batch"
	"print-packager/internal/http-server/router"
	minio_repo "print-packager/internal/repository/batch/cloud/minio"
	postgres_repo "print-packager/internal/repository/batch/db/postgres"
	batch_uc "print-packager/internal/usecase/batch"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"
)

// App is the HTTP side: it accepts uploads, serves results and relays
// progress events from the workers to websocket clients.
type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.ProducerClient
	progress *kafka_impl.ConsumerClient
	hub      *batch_uc.ProgressHub
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
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

	producer := kafka_impl.NewTaskProducer(cfg)
	progress := kafka_impl.NewProgressConsumer(cfg)
	hub := batch_uc.NewProgressHub()

	defaults := batch_uc.Defaults{
		Watermark:  cfg.WatermarkSpec(),
		Processing: cfg.ProcessingSettings(),
		Export:     cfg.ExportOptions(),
	}
	batchUsecase := batch_uc.NewBatchUsecase(batchRepo, fileRepo, producer, pipeline.Catalog, defaults, cfg.Server.MaxUploadSize, logger)

	batchHandler := batch_h.NewBatchHandler(batchUsecase, hub, cfg.Server.MaxUploadSize, logger)
	previewHandler := batch_h.NewPreviewHandler(pipeline.Previewer, defaults.Watermark, cfg.Server.MaxUploadSize, logger)

	h := &router.Handler{
		BatchHandler:   batchHandler,
		PreviewHandler: previewHandler,
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		db:       db,
		producer: producer,
		progress: progress,
		hub:      hub,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Server error")
			return err
		}
		return nil
	})

	g.Go(func() error {
		relayProgress(gctx, a.progress, a.hub, a.cfg, a.logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}
		return nil
	})

	err := g.Wait()

	if a.db != nil && a.db.Master != nil {
		a.db.Master.Close()
	}
	if a.producer != nil {
		a.producer.Close()
	}
	if a.progress != nil {
		a.progress.Close()
	}

	a.logger.Info().Msg("Server stopped gracefully")
	return err
}

type progressSink interface {
	Publish(event domain.ProgressEvent)
}

// relayProgress feeds progress events from the broker into the hub until ctx
// is done.
func relayProgress(ctx context.Context, consumer broker.Consumer, sink progressSink, cfg *config.Config, logger *zlog.Zerolog) {
	messages := make(chan *broker.Message, 64)
	consumer.Start(ctx, messages, cfg.DefaultRetryStrategy())

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-messages:
			var event domain.ProgressEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("Skipping malformed progress event")
			} else {
				sink.Publish(event)
			}
			if err := consumer.Commit(ctx, msg); err != nil {
				logger.Debug().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit progress event")
			}
		}
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}

func openDB(cfg *config.Config) (*dbpg.DB, error) {
	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

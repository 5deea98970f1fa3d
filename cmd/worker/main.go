package main

import (
	"print-packager/internal/app"
	"print-packager/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	zlog.Logger.Info().
		Int("concurrency", cfg.Worker.Concurrency).
		Str("catalog", cfg.Processing.CatalogPath).
		Msg("Starting print packaging worker")

	workerApp, err := app.NewWorkerApp(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create worker")
	}

	if err := workerApp.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Worker stopped with error")
	}

	zlog.Logger.Info().Msg("Worker drained and exited")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/seanblong/docask/internal/app"
	"github.com/seanblong/docask/internal/config"
	"github.com/seanblong/docask/internal/ingest"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("docask-ingest", pflag.ExitOnError)
	workers := fs.Int("workers", 0, "Concurrent uploads (0 uses NumCPU, capped at 8)")

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	logger, err := app.NewLogger(cfg.LogLevel, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Storage == config.StorageMemory {
		logger.Warn().Msg("storage is memory; ingested documents will not outlive this process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, closeStore, err := app.NewService(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	defer closeStore()

	ix := ingest.New(cfg.DocsRoot, svc)
	ix.Workers = *workers
	stats, err := ix.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if stats.Failed > 0 {
		logger.Warn().Int64("failed", stats.Failed).Msg("some documents were not loaded")
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"bizassist/internal/app"
	"bizassist/internal/config"
	"bizassist/internal/logger"
)

func main() {
	// Initialize structured logger
	base := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(logger.NewCorrelationHandler(base)))

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. External dependencies
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("failed to bootstrap", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	// 3. Wire the application
	application, err := app.New(cfg, deps.DB, deps.BlobStore, deps.BlobStore, deps.NSQProducer)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	// 4. Ingestion consumer
	nsqCfg := nsq.NewConfig()
	nsqCfg.MaxAttempts = uint16(cfg.MaxRetries) + 1
	consumer, err := nsq.NewConsumer(config.TopicIngest, config.ChannelIngestWorker, nsqCfg)
	if err != nil {
		slog.Error("failed to create NSQ consumer", "error", err)
		os.Exit(1)
	}
	consumer.AddConcurrentHandlers(application.IngestConsumer, cfg.IngestionConcurrency)
	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		slog.Error("failed to connect to NSQLookupd", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion consumer connected", "topic", config.TopicIngest, "concurrency", cfg.IngestionConcurrency)
	defer consumer.Stop()

	// 5. Start Server
	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

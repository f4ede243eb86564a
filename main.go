package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"konduit/backend/internal/adapter/gemini"
	"konduit/backend/internal/app"
	"konduit/backend/internal/config"
	applog "konduit/backend/internal/logger"
)

func main() {
	logger := slog.New(applog.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *cfg, logger); err != nil {
		logger.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	defer deps.Close()

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer embedder.Close()

	var summarizer app.Summarizer
	gs, err := gemini.NewSummarizer(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Warn("summarizer unavailable, smart search disabled", "error", err)
	} else {
		summarizer = gs
		defer gs.Close()
	}

	a, err := app.New(cfg, deps.DB, embedder, summarizer, deps.NSQProducer)
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}

	consumer, err := nsq.NewConsumer(config.TopicCrawlTask, "backend", nsq.NewConfig())
	if err != nil {
		return fmt.Errorf("failed to create crawl consumer: %w", err)
	}
	consumer.AddHandler(a.CrawlConsumer)
	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		logger.Warn("could not connect to nsqlookupd, crawl jobs will not be processed", "error", err)
	}
	defer consumer.Stop()

	return a.Run(ctx, fmt.Sprintf("%d", cfg.ServerPort))
}

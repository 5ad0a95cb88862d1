package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"rifas/internal/config"
	"rifas/internal/logger"
	"rifas/internal/platform"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "Maximum duration of the rebuild")
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	cfg.SearchEnabled = true
	cfg.NATSEnabled = false
	cfg.RedisEnabled = false

	p, err := platform.Open(cfg, "reindex")
	if err != nil {
		logger.Fatal("Failed to open platform", "error", err)
	}
	defer p.Close()

	if !p.Services.Indexer.Enabled() {
		logger.Fatal("Elasticsearch is not reachable", "url", cfg.Elasticsearch.URL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	slog.Info("Rebuilding raffle search index", "index", cfg.Elasticsearch.Index)

	indexed, err := p.Services.Indexer.ReindexAll(ctx)
	if err != nil {
		logger.Fatal("Reindex failed", "error", err, "indexed", indexed)
	}

	if p.Search != nil {
		if err := p.Search.Refresh(ctx); err != nil {
			slog.Warn("Failed to refresh index", "error", err)
		}
		if total, err := p.Search.Count(ctx); err == nil {
			slog.Info("Index document count", "count", total)
		}
	}

	slog.Info("Reindex completed", "indexed", indexed, "elapsed", time.Since(start).String())
}

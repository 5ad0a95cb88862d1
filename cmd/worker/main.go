package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rifas/cmd/worker/jobs"
	"rifas/internal/config"
	"rifas/internal/consumers"
	"rifas/internal/logger"
	"rifas/internal/platform"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	log.Info("Starting worker...", "version", cfg.Version)

	p, err := platform.Open(cfg, "worker")
	if err != nil {
		logger.Fatal("Failed to open platform", "error", err)
	}
	svc := p.Services

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expiration := jobs.NewReservationExpirationJob(svc.Reservations, cfg.Jobs.ExpirationInterval)
	closing := jobs.NewRaffleClosingJob(svc.Raffles, cfg.Jobs.ClosingInterval)
	antifraud := jobs.NewAntifraudJob(svc.Antifraud, cfg.Jobs.AntifraudInterval)

	expiration.Start(ctx)
	closing.Start(ctx)
	antifraud.Start(ctx)

	var consumerService *consumers.ConsumerService
	if p.NATS != nil {
		consumerService = consumers.NewConsumerService(p.NATS, consumers.NewHandlers(svc.Notifier, svc.Indexer))
		if err := consumerService.Start(); err != nil {
			logger.Fatal("Failed to start consumers", "error", err)
		}
	} else {
		log.Warn("NATS disabled, settlement notifications and search indexing are off")
	}

	log.Info("Worker started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")

	if consumerService != nil {
		consumerService.Stop()
	}
	expiration.Stop()
	closing.Stop()
	antifraud.Stop()
	cancel()

	if err := p.Close(); err != nil {
		log.Error("Error during cleanup", "error", err)
	}

	log.Info("Worker stopped")
}

// Package platform opens the shared connections of the rifas binaries.
package platform

import (
	"fmt"
	"log/slog"

	"rifas/internal/auth"
	"rifas/internal/cache"
	"rifas/internal/config"
	"rifas/internal/database"
	"rifas/internal/external"
	"rifas/internal/messaging"
	"rifas/internal/repository"
	"rifas/internal/search"
	"rifas/internal/service"
)

// Platform holds the open connections. Optional ones are nil when disabled
// in the configuration.
type Platform struct {
	DB       *database.DB
	Redis    *cache.RedisClient
	NATS     *messaging.NATSClient
	Search   *search.ElasticsearchClient
	Repos    *repository.Repositories
	Services *service.Services
}

// Open connects to the database and the enabled integrations. clientRole
// distinguishes the NATS client ids of the api and the worker.
func Open(cfg *config.Config, clientRole string) (*Platform, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	p := &Platform{DB: db}

	if cfg.RedisEnabled {
		p.Redis, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable, continuing without cache", "error", err)
		}
	}

	if cfg.NATSEnabled {
		natsCfg := cfg.NATS
		natsCfg.ClientID = natsCfg.ClientID + "-" + clientRole
		p.NATS, err = messaging.NewNATSClient(natsCfg)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
	}

	if cfg.SearchEnabled {
		p.Search, err = search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, raffle search falls back to SQL", "error", err)
		}
	}

	if p.Search != nil {
		p.Repos = repository.NewRepositoriesWithElasticsearch(db, p.Search)
	} else {
		p.Repos = repository.NewRepositories(db)
	}

	deps := service.Dependencies{
		DB:        db,
		Repos:     p.Repos,
		Cache:     p.Redis,
		Tokens:    auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL),
		PixConfig: cfg.Pix,
		Antifraud: cfg.Antifraud,
	}
	if p.NATS != nil {
		deps.Publisher = p.NATS
	}
	if cfg.Pix.Enabled() {
		deps.Pix = external.NewPixClient(cfg.Pix)
	}
	if cfg.WhatsApp.Enabled() {
		deps.WhatsApp = external.NewWhatsAppClient(cfg.WhatsApp)
	}
	if cfg.Telegram.Enabled() {
		deps.Telegram, err = external.NewTelegramNotifier(cfg.Telegram)
		if err != nil {
			slog.Warn("Telegram notifier unavailable", "error", err)
		}
	}

	p.Services = service.NewServices(deps)
	return p, nil
}

// Close releases every open connection
func (p *Platform) Close() error {
	if p.NATS != nil {
		if err := p.NATS.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}
	if p.Redis != nil {
		if err := p.Redis.Close(); err != nil {
			slog.Error("Error closing Redis connection", "error", err)
		}
	}
	if p.DB != nil {
		if err := p.DB.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}
	return nil
}

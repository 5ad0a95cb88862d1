package service

import (
	"context"

	"rifas/internal/auth"
	"rifas/internal/cache"
	"rifas/internal/config"
	"rifas/internal/database"
	"rifas/internal/external"
	"rifas/internal/logger"
	"rifas/internal/messaging"
	"rifas/internal/models"
	"rifas/internal/repository"
)

// Dependencies are the shared clients the services are built from. Optional
// integrations are nil when disabled.
type Dependencies struct {
	DB        *database.DB
	Repos     *repository.Repositories
	Publisher messaging.Publisher
	Cache     *cache.RedisClient
	Tokens    *auth.TokenService
	Pix       *external.PixClient
	PixConfig external.PixConfig
	WhatsApp  *external.WhatsAppClient
	Telegram  *external.TelegramNotifier
	Antifraud config.AntifraudConfig
}

type Services struct {
	Auth         *AuthService
	Tenants      *TenantService
	Raffles      *RaffleService
	Reservations *ReservationService
	Payments     *PaymentService
	Results      *ResultService
	Settings     *SettingsService
	Antifraud    *AntifraudService
	Reports      *ReportService
	Indexer      *SearchIndexer
	Notifier     *SettlementNotifier
	Sorteios     *SorteioService
	Admin        *AdminService
}

func NewServices(deps Dependencies) *Services {
	if deps.Publisher == nil {
		deps.Publisher = messaging.NopPublisher{}
	}

	antifraud := NewAntifraudService(deps.Repos, deps.Antifraud)

	return &Services{
		Auth:         NewAuthService(deps.Repos, deps.Tokens),
		Tenants:      NewTenantService(deps.Repos, deps.Cache),
		Raffles:      NewRaffleService(deps.DB, deps.Repos, deps.Publisher),
		Reservations: NewReservationService(deps.DB, deps.Repos, deps.Cache, antifraud, deps.Publisher),
		Payments:     NewPaymentService(deps.DB, deps.Repos, deps.Pix, deps.PixConfig, deps.Publisher),
		Results:      NewResultService(deps.DB, deps.Repos, deps.Publisher),
		Settings:     NewSettingsService(deps.Repos),
		Antifraud:    antifraud,
		Reports:      NewReportService(deps.Repos),
		Indexer:      NewSearchIndexer(deps.Repos),
		Notifier:     NewSettlementNotifier(deps.Repos, deps.WhatsApp, deps.Telegram),
		Sorteios:     NewSorteioService(deps.Repos),
		Admin:        NewAdminService(deps.Repos),
	}
}

// publish sends an event and logs failures without failing the operation
func publish(ctx context.Context, pub messaging.Publisher, subject string, event interface{}) {
	if err := pub.Publish(subject, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}

// auditEntry builds an audit log attributed to actor
func auditEntry(actor models.Actor, action, entityType, entityID string, oldValue, newValue interface{}) (*models.AuditLog, error) {
	entry, err := repository.NewAuditLog(action, entityType, entityID, oldValue, newValue)
	if err != nil {
		return nil, err
	}
	if actor.TenantID != "" {
		entry.TenantID = &actor.TenantID
	}
	if actor.ID != "" {
		entry.ActorID = &actor.ID
	}
	if actor.Role != "" {
		entry.ActorRole = actor.Role
	}
	if actor.IP != "" {
		entry.IPAddress = &actor.IP
	}
	if actor.UserAgent != "" {
		entry.UserAgent = &actor.UserAgent
	}
	return entry, nil
}

// writeAudit inserts an audit entry through audit
func writeAudit(ctx context.Context, audit *repository.AuditRepository, actor models.Actor, action, entityType, entityID string, oldValue, newValue interface{}) error {
	entry, err := auditEntry(actor, action, entityType, entityID, oldValue, newValue)
	if err != nil {
		return err
	}
	return audit.Insert(ctx, entry)
}

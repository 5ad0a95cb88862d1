package consumers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/stan.go"

	"rifas/internal/logger"
	"rifas/internal/models"
)

// Notifier announces a settled raffle
type Notifier interface {
	Notify(ctx context.Context, event *models.RaffleSettledEvent) error
}

// Indexer refreshes the search document of a raffle
type Indexer interface {
	Enabled() bool
	Reindex(ctx context.Context, tenantID, rifaID string) error
}

const handleTimeout = 20 * time.Second

type Handlers struct {
	notifier Notifier
	indexer  Indexer
}

func NewHandlers(notifier Notifier, indexer Indexer) *Handlers {
	return &Handlers{notifier: notifier, indexer: indexer}
}

// ack confirms the message unless processing asked for a redelivery
func ack(m *stan.Msg, redeliver bool) {
	if redeliver {
		return
	}
	if err := m.Ack(); err != nil {
		slog.Error("Failed to ack message", "subject", m.Subject, "sequence", m.Sequence, "error", err)
	}
}

func (h *Handlers) HandleRaffleSettled(m *stan.Msg) {
	ack(m, h.processRaffleSettled(m.Data))
}

func (h *Handlers) HandleNumberEvent(m *stan.Msg) {
	ack(m, h.processNumberEvent(m.Subject, m.Data))
}

func (h *Handlers) HandleRaffleEvent(m *stan.Msg) {
	ack(m, h.processRaffleEvent(m.Subject, m.Data))
}

// The process functions report whether the message should be redelivered.
// Undecodable payloads are dropped.

func (h *Handlers) processRaffleSettled(data []byte) bool {
	var event models.RaffleSettledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal raffle settled event", "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(logger.ContextWithTenantID(context.Background(), event.TenantID), handleTimeout)
	defer cancel()

	logger.WithContext(ctx).Info("Processing raffle settled event", "rifa_id", event.RifaID, "resultado", event.Resultado)
	if err := h.notifier.Notify(ctx, &event); err != nil {
		logger.WithContext(ctx).Error("Failed to notify settlement", "rifa_id", event.RifaID, "error", err)
		return true
	}
	return false
}

func (h *Handlers) processNumberEvent(subject string, data []byte) bool {
	var event models.NumberEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal number event", "subject", subject, "error", err)
		return false
	}
	return h.reindex(subject, event.TenantID, event.RifaID)
}

func (h *Handlers) processRaffleEvent(subject string, data []byte) bool {
	var event models.RaffleEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal raffle event", "subject", subject, "error", err)
		return false
	}
	return h.reindex(subject, event.TenantID, event.RifaID)
}

func (h *Handlers) reindex(subject, tenantID, rifaID string) bool {
	if !h.indexer.Enabled() {
		return false
	}

	ctx, cancel := context.WithTimeout(logger.ContextWithTenantID(context.Background(), tenantID), handleTimeout)
	defer cancel()

	if err := h.indexer.Reindex(ctx, tenantID, rifaID); err != nil {
		logger.WithContext(ctx).Error("Failed to reindex raffle", "subject", subject, "rifa_id", rifaID, "error", err)
		return true
	}
	logger.WithContext(ctx).Debug("Raffle reindexed", "subject", subject, "rifa_id", rifaID)
	return false
}

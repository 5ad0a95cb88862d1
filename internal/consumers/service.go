package consumers

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/stan.go"

	"rifas/internal/messaging"
	"rifas/internal/models"
)

const (
	notifierQueue = "notifier"
	indexerQueue  = "indexer"
)

// ConsumerService owns the NATS subscriptions of the worker
type ConsumerService struct {
	nats     *messaging.NATSClient
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(nats *messaging.NATSClient, handlers *Handlers) *ConsumerService {
	return &ConsumerService{nats: nats, handlers: handlers}
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subscriptions := []struct {
		subject string
		queue   string
		handler stan.MsgHandler
	}{
		{models.EventRaffleSettled, notifierQueue, cs.handlers.HandleRaffleSettled},
		{models.EventNumberReserved, indexerQueue, cs.handlers.HandleNumberEvent},
		{models.EventNumberExpired, indexerQueue, cs.handlers.HandleNumberEvent},
		{models.EventNumberPaid, indexerQueue, cs.handlers.HandleNumberEvent},
		{models.EventNumberCancelled, indexerQueue, cs.handlers.HandleNumberEvent},
		{models.EventRaffleActivated, indexerQueue, cs.handlers.HandleRaffleEvent},
		{models.EventRaffleUpdated, indexerQueue, cs.handlers.HandleRaffleEvent},
		{models.EventRaffleClosed, indexerQueue, cs.handlers.HandleRaffleEvent},
		{models.EventRaffleSettled, indexerQueue, cs.handlers.HandleRaffleEvent},
	}

	for _, s := range subscriptions {
		sub, err := cs.nats.SubscribeQueue(s.subject, s.queue, s.handler)
		if err != nil {
			cs.Stop()
			return fmt.Errorf("failed to start consumer %s/%s: %w", s.subject, s.queue, err)
		}
		cs.subs = append(cs.subs, sub)
	}

	slog.Info("All consumers started successfully", "subscriptions", len(cs.subs))
	return nil
}

// Stop closes the subscriptions and keeps the durable positions
func (cs *ConsumerService) Stop() {
	for _, sub := range cs.subs {
		if err := sub.Close(); err != nil {
			slog.Error("Error closing subscription", "error", err)
		}
	}
	cs.subs = nil
}

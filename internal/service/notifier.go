package service

import (
	"context"
	"fmt"
	"strings"

	"rifas/internal/external"
	"rifas/internal/i18n"
	"rifas/internal/logger"
	"rifas/internal/metrics"
	"rifas/internal/models"
	"rifas/internal/repository"
)

// SettlementNotifier tells winners and operators about a settled raffle
type SettlementNotifier struct {
	repos    *repository.Repositories
	whatsapp *external.WhatsAppClient
	telegram *external.TelegramNotifier
}

func NewSettlementNotifier(repos *repository.Repositories, whatsapp *external.WhatsAppClient, telegram *external.TelegramNotifier) *SettlementNotifier {
	return &SettlementNotifier{repos: repos, whatsapp: whatsapp, telegram: telegram}
}

// Notify sends the settlement messages once per apuração. A raffle that
// was already announced for this result is skipped.
func (s *SettlementNotifier) Notify(ctx context.Context, event *models.RaffleSettledEvent) error {
	key := event.RifaID + ":" + event.Resultado
	done, err := s.repos.Audit.Exists(ctx, models.AuditWinnerNotified, entityRaffle, key)
	if err != nil {
		return fmt.Errorf("failed to check notification log: %w", err)
	}
	if done {
		logger.WithContext(ctx).Info("Settlement already notified", "rifa_id", event.RifaID)
		return nil
	}

	winners, err := s.repos.Winners.ListByRaffle(ctx, event.TenantID, event.RifaID)
	if err != nil {
		return fmt.Errorf("failed to list winners: %w", err)
	}

	sent := 0
	for _, w := range winners {
		if !w.OptIn || w.Phone == nil || *w.Phone == "" || s.whatsapp == nil {
			continue
		}
		body := i18n.T(i18n.MsgWinnerNotice, map[string]any{
			"Name":   w.Name,
			"Numero": w.Numero,
			"Titulo": event.Titulo,
		})
		sid, err := s.whatsapp.SendText(ctx, *w.Phone, body)
		if err != nil {
			metrics.NotificationsSent.WithLabelValues("whatsapp", "error").Inc()
			logger.WithContext(ctx).Error("Failed to notify winner", "error", err, "user_id", w.UserID)
			continue
		}
		metrics.NotificationsSent.WithLabelValues("whatsapp", "sent").Inc()
		logger.WithContext(ctx).Info("Winner notified", "user_id", w.UserID, "sid", sid)
		sent++
	}

	if s.telegram != nil {
		text := i18n.T(i18n.MsgSettlementAnnouncement, map[string]any{
			"Titulo":     event.Titulo,
			"Resultado":  event.Resultado,
			"Ganhadores": announceWinners(winners),
		})
		if err := s.telegram.Notify(text); err != nil {
			metrics.NotificationsSent.WithLabelValues("telegram", "error").Inc()
			logger.WithContext(ctx).Error("Failed to announce settlement", "error", err, "rifa_id", event.RifaID)
		} else {
			metrics.NotificationsSent.WithLabelValues("telegram", "sent").Inc()
		}
	}

	return writeAudit(ctx, s.repos.Audit, models.SystemActor(event.TenantID), models.AuditWinnerNotified, entityRaffle, key, nil,
		map[string]interface{}{"ganhadores": len(winners), "whatsapp_enviados": sent})
}

func announceWinners(winners []repository.WinnerDetail) string {
	if len(winners) == 0 {
		return "nenhum"
	}
	parts := make([]string, 0, len(winners))
	for _, w := range winners {
		parts = append(parts, fmt.Sprintf("%s (%s)", w.Numero, w.Name))
	}
	return strings.Join(parts, ", ")
}

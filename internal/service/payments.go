package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rifas/internal/database"
	apperrors "rifas/internal/errors"
	"rifas/internal/external"
	"rifas/internal/logger"
	"rifas/internal/messaging"
	"rifas/internal/metrics"
	"rifas/internal/models"
	"rifas/internal/repository"
)

// qrPlaceholderPNG is a 1x1 PNG returned as qr_code when the copia e cola
// payload is built locally
const qrPlaceholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type PaymentService struct {
	db        *database.DB
	repos     *repository.Repositories
	pix       *external.PixClient
	pixConfig external.PixConfig
	publisher messaging.Publisher
	now       func() time.Time
}

func NewPaymentService(db *database.DB, repos *repository.Repositories, pix *external.PixClient, pixConfig external.PixConfig, publisher messaging.Publisher) *PaymentService {
	return &PaymentService{
		db:        db,
		repos:     repos,
		pix:       pix,
		pixConfig: pixConfig,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreatePix returns the PIX instrument for a live reservation of the actor
func (s *PaymentService) CreatePix(ctx context.Context, actor models.Actor, paymentID string) (*models.PixResponse, error) {
	n, err := s.repos.Numbers.GetByPaymentID(ctx, actor.TenantID, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if n == nil || !n.OwnedBy(actor.ID) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, apperrors.ErrNotFound)
	}
	if err := checkPayable(n, s.now()); err != nil {
		return nil, err
	}

	raffle, err := s.repos.Raffles.GetByID(ctx, actor.TenantID, n.RifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("raffle %s: %w", n.RifaID, apperrors.ErrNotFound)
	}

	settings, err := s.repos.Settings.Get(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.AcceptPix {
		return nil, fmt.Errorf("%w: pix disabled for tenant", apperrors.ErrForbidden)
	}

	expiresAt := *n.ReservedUntil

	if s.pix == nil {
		if settings.PixKey == "" {
			return nil, fmt.Errorf("%w: no pix key configured", apperrors.ErrPaymentProvider)
		}
		return &models.PixResponse{
			PaymentID: paymentID,
			QRCode:    qrPlaceholderPNG,
			PixCode: external.BuildStaticPixPayload(settings.PixKey, s.pixConfig.MerchantName,
				s.pixConfig.MerchantCity, paymentID, raffle.PrecoNumero),
			ExpiresAt: expiresAt,
		}, nil
	}

	charge := external.PixChargeRequest{
		ExternalID: paymentID,
		Amount:     raffle.PrecoNumero,
		ExpiresIn:  int(expiresAt.Sub(s.now()).Seconds()),
	}
	if user, err := s.repos.Users.GetByID(ctx, actor.TenantID, actor.ID); err == nil && user != nil {
		charge.PayerName = user.Name
		charge.PayerEmail = user.Email
	}

	result, err := s.pix.CreateCharge(ctx, charge)
	if err != nil {
		logger.WithContext(ctx).Error("PIX charge failed", "error", err, "payment_id", paymentID)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPaymentProvider, err)
	}

	return &models.PixResponse{
		PaymentID: paymentID,
		QRCode:    result.QRCode,
		PixCode:   result.PixCopiaECola,
		ExpiresAt: expiresAt,
	}, nil
}

// checkPayable requires a live reservation
func checkPayable(n *models.Number, now time.Time) error {
	if n.Status != models.NumberReserved {
		if n.Status == models.NumberPaid {
			return fmt.Errorf("%w: numero %s already paid", apperrors.ErrValidation, n.Numero)
		}
		return apperrors.ErrReservationExpired
	}
	if n.ReservedUntil == nil || !n.ReservedUntil.After(now) {
		return apperrors.ErrReservationExpired
	}
	return nil
}

// webhookTransition returns the status a provider callback moves n to, or
// "" when the callback does not apply
func webhookTransition(current models.NumberStatus, providerStatus string) models.NumberStatus {
	switch providerStatus {
	case models.WebhookStatusPaid:
		if current == models.NumberReserved || current == models.NumberExpired {
			return models.NumberPaid
		}
	case models.WebhookStatusCanceled:
		if current == models.NumberReserved || current == models.NumberPaid {
			return models.NumberCancelled
		}
	}
	return ""
}

// HandleWebhook applies a provider payment callback. Unknown payment ids
// are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload *models.PixWebhookPayload) error {
	if payload.Status != models.WebhookStatusPaid && payload.Status != models.WebhookStatusCanceled {
		return fmt.Errorf("%w: unknown webhook status %q", apperrors.ErrValidation, payload.Status)
	}

	var changed *models.Number

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		n, err := repos.Numbers.GetByPaymentIDForUpdate(ctx, payload.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to lock number: %w", err)
		}
		if n == nil {
			logger.WithContext(ctx).Warn("Webhook for unknown payment", "payment_id", payload.PaymentID)
			return nil
		}

		next := webhookTransition(n.Status, payload.Status)
		if next == "" {
			logger.WithContext(ctx).Info("Webhook ignored",
				"payment_id", payload.PaymentID,
				"status", payload.Status,
				"current", n.Status)
			return nil
		}

		raffle, err := repos.Raffles.GetByID(ctx, n.TenantID, n.RifaID)
		if err != nil {
			return fmt.Errorf("failed to get raffle: %w", err)
		}
		if raffle == nil {
			return fmt.Errorf("raffle %s: %w", n.RifaID, apperrors.ErrNotFound)
		}

		action := models.AuditPaymentConfirmed
		logStatus := models.PaymentLogPago
		if next == models.NumberPaid {
			err = repos.Numbers.MarkPaid(ctx, n.ID, payload.PaymentID)
		} else {
			action = models.AuditPaymentCanceled
			logStatus = models.PaymentLogCancelado
			err = repos.Numbers.Cancel(ctx, n.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to update number: %w", err)
		}

		if err := repos.PaymentLogs.Insert(ctx, &models.PaymentLog{
			TenantID:  n.TenantID,
			RifaID:    n.RifaID,
			NumeroID:  n.ID,
			UserID:    n.UserID,
			PaymentID: payload.PaymentID,
			Valor:     raffle.PrecoNumero,
			Metodo:    models.PaymentMethodPix,
			Status:    logStatus,
		}); err != nil {
			return err
		}

		if err := writeAudit(ctx, repos.Audit, models.SystemActor(n.TenantID), action, entityNumber, n.ID,
			map[string]interface{}{"status": n.Status},
			map[string]interface{}{"status": next, "payment_id": payload.PaymentID}); err != nil {
			return err
		}

		n.Status = next
		n.ReservedUntil = nil
		changed = n
		return nil
	})
	if err != nil {
		return err
	}

	if changed != nil {
		subject := models.EventNumberPaid
		if changed.Status == models.NumberCancelled {
			subject = models.EventNumberCancelled
		}
		publish(ctx, s.publisher, subject, numberEvent(changed, s.now()))
		metrics.PaymentsConfirmed.WithLabelValues("webhook", string(changed.Status)).Inc()
		logger.WithContext(ctx).Info("Payment webhook applied",
			"payment_id", payload.PaymentID,
			"numero", changed.Numero,
			"status", changed.Status)
	}
	return nil
}

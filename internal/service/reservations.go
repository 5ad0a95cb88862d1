package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rifas/internal/cache"
	"rifas/internal/database"
	apperrors "rifas/internal/errors"
	"rifas/internal/i18n"
	"rifas/internal/logger"
	"rifas/internal/messaging"
	"rifas/internal/metrics"
	"rifas/internal/models"
	"rifas/internal/numbering"
	"rifas/internal/repository"
)

const (
	entityNumber = "rifa_numero"
	entityRaffle = "rifa"
	entityResult = "rifa_resultado"

	claimLockTTL = 5 * time.Second
)

type ReservationService struct {
	db        *database.DB
	repos     *repository.Repositories
	cache     *cache.RedisClient
	antifraud *AntifraudService
	publisher messaging.Publisher
	now       func() time.Time
}

func NewReservationService(db *database.DB, repos *repository.Repositories, redis *cache.RedisClient, antifraud *AntifraudService, publisher messaging.Publisher) *ReservationService {
	return &ReservationService{
		db:        db,
		repos:     repos,
		cache:     redis,
		antifraud: antifraud,
		publisher: publisher,
		now:       time.Now,
	}
}

type reservationDecision int

const (
	decisionReserve reservationDecision = iota
	decisionRecheckout
	decisionUnavailable
)

// decideReservation picks what a claim on n by userID does. A reservation
// past reserved_until that the job has not released yet is claimable.
func decideReservation(n *models.Number, userID string, now time.Time) reservationDecision {
	switch n.Status {
	case models.NumberFree, models.NumberExpired:
		return decisionReserve
	case models.NumberReserved:
		live := n.ReservedUntil != nil && n.ReservedUntil.After(now)
		if !live {
			return decisionReserve
		}
		if n.OwnedBy(userID) && n.PaymentID != nil {
			return decisionRecheckout
		}
	}
	return decisionUnavailable
}

// Reserve claims one number of an active raffle for the actor
func (s *ReservationService) Reserve(ctx context.Context, actor models.Actor, rifaID, numero string) (*models.ReserveResponse, error) {
	resp, err := s.reserve(ctx, actor, rifaID, numero)
	switch {
	case err == nil && resp.recheckout:
		metrics.Reservations.WithLabelValues(metrics.ResultRecheckout).Inc()
	case err == nil:
		metrics.Reservations.WithLabelValues(metrics.ResultReserved).Inc()
	case errors.Is(err, apperrors.ErrNumberUnavailable):
		metrics.Reservations.WithLabelValues(metrics.ResultUnavailable).Inc()
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrRateLimited),
		errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrRaffleNotActive),
		errors.Is(err, apperrors.ErrNotFound):
		metrics.Reservations.WithLabelValues(metrics.ResultRejected).Inc()
	default:
		metrics.Reservations.WithLabelValues(metrics.ResultError).Inc()
	}
	if err != nil {
		return nil, err
	}
	return &resp.ReserveResponse, nil
}

type reserveResult struct {
	models.ReserveResponse
	recheckout bool
}

func (s *ReservationService) reserve(ctx context.Context, actor models.Actor, rifaID, numero string) (*reserveResult, error) {
	if err := s.antifraud.Check(ctx, actor); err != nil {
		return nil, err
	}

	raffle, err := s.repos.Raffles.GetByID(ctx, actor.TenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}
	if raffle.Status != models.RaffleActive {
		return nil, apperrors.ErrRaffleNotActive
	}
	if !numbering.Valid(raffle.TipoRifa, numero) {
		return nil, fmt.Errorf("%w: numero %q is not a %s number", apperrors.ErrValidation, numero, raffle.TipoRifa)
	}

	if s.cache != nil {
		acquired, err := s.cache.AcquireClaim(ctx, rifaID, numero, claimLockTTL)
		if err != nil {
			// The row lock below still serialises claims
			logger.WithContext(ctx).Warn("Claim lock unavailable", "error", err, "rifa_id", rifaID)
		} else if !acquired {
			return nil, apperrors.ErrNumberUnavailable
		} else {
			defer func() {
				if err := s.cache.ReleaseClaim(context.WithoutCancel(ctx), rifaID, numero); err != nil {
					logger.WithContext(ctx).Warn("Failed to release claim lock", "error", err)
				}
			}()
		}
	}

	settings, err := s.repos.Settings.Get(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	timeout := time.Duration(settings.ReservationTimeoutMinutes) * time.Minute

	var result *reserveResult
	var reserved *models.Number

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		n, err := repos.Numbers.GetForUpdate(ctx, actor.TenantID, rifaID, numero)
		if err != nil {
			return fmt.Errorf("failed to lock number: %w", err)
		}
		if n == nil {
			return fmt.Errorf("numero %s: %w", numero, apperrors.ErrNotFound)
		}

		now := s.now()
		switch decideReservation(n, actor.ID, now) {
		case decisionUnavailable:
			return apperrors.ErrNumberUnavailable
		case decisionRecheckout:
			result = &reserveResult{
				ReserveResponse: models.ReserveResponse{
					Message:   i18n.T(i18n.MsgReservationCreated, map[string]any{"Numero": n.Numero}),
					Numero:    n.Numero,
					PaymentID: *n.PaymentID,
					ExpiresAt: *n.ReservedUntil,
				},
				recheckout: true,
			}
			return nil
		}

		old := map[string]interface{}{"status": n.Status, "user_id": n.UserID}
		paymentID := uuid.New().String()
		until := now.Add(timeout).UTC()
		if err := repos.Numbers.Reserve(ctx, n.ID, actor.ID, paymentID, until); err != nil {
			return fmt.Errorf("failed to reserve number: %w", err)
		}

		if err := writeAudit(ctx, repos.Audit, actor, models.AuditReserveNumber, entityNumber, n.ID, old,
			map[string]interface{}{"status": models.NumberReserved, "user_id": actor.ID, "payment_id": paymentID, "reserved_until": until}); err != nil {
			return err
		}

		n.Status = models.NumberReserved
		n.UserID = &actor.ID
		n.PaymentID = &paymentID
		n.ReservedUntil = &until
		reserved = n

		result = &reserveResult{ReserveResponse: models.ReserveResponse{
			Message:   i18n.T(i18n.MsgReservationCreated, map[string]any{"Numero": n.Numero}),
			Numero:    n.Numero,
			PaymentID: paymentID,
			ExpiresAt: until,
		}}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reserved != nil {
		publish(ctx, s.publisher, models.EventNumberReserved, numberEvent(reserved, s.now()))
		logger.WithContext(ctx).Info("Number reserved",
			"rifa_id", rifaID,
			"numero", numero,
			"user_id", actor.ID,
			"expires_at", result.ExpiresAt)
	}
	return result, nil
}

// ExpireDue releases up to limit overdue reservations and returns how many
// were released
func (s *ReservationService) ExpireDue(ctx context.Context, limit int) (int, error) {
	var expired []models.Number

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		due, err := repos.Numbers.LockExpired(ctx, s.now(), limit)
		if err != nil {
			return fmt.Errorf("failed to select expired reservations: %w", err)
		}

		for _, n := range due {
			if err := repos.Numbers.Release(ctx, n.ID); err != nil {
				return fmt.Errorf("failed to release number %s: %w", n.ID, err)
			}

			old := map[string]interface{}{
				"status":         n.Status,
				"user_id":        n.UserID,
				"payment_id":     n.PaymentID,
				"reserved_until": n.ReservedUntil,
			}
			next := map[string]interface{}{"status": models.NumberExpired, "released_to": models.NumberFree}
			if err := writeAudit(ctx, repos.Audit, models.SystemActor(n.TenantID), models.AuditReservationExpired, entityNumber, n.ID, old, next); err != nil {
				return err
			}
			expired = append(expired, n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	now := s.now()
	for i := range expired {
		n := expired[i]
		event := numberEvent(&n, now)
		event.Status = models.NumberExpired
		publish(ctx, s.publisher, models.EventNumberExpired, event)
		metrics.ReservationsExpired.Inc()
	}

	if len(expired) > 0 {
		logger.WithContext(ctx).Info("Released expired reservations", "count", len(expired))
	}
	return len(expired), nil
}

// AdminCancel cancels a reserved or paid number
func (s *ReservationService) AdminCancel(ctx context.Context, actor models.Actor, rifaID, numero string) (*models.MessageResponse, error) {
	var cancelled *models.Number

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		raffle, n, err := lockRaffleNumber(ctx, repos, actor.TenantID, rifaID, numero)
		if err != nil {
			return err
		}
		if n.Status != models.NumberReserved && n.Status != models.NumberPaid {
			return fmt.Errorf("%w: numero %s is %s", apperrors.ErrInvalidTransition, numero, n.Status)
		}

		if err := repos.Numbers.Cancel(ctx, n.ID); err != nil {
			return fmt.Errorf("failed to cancel number: %w", err)
		}

		if n.Status == models.NumberPaid && n.PaymentID != nil {
			if err := repos.PaymentLogs.Insert(ctx, &models.PaymentLog{
				TenantID:  actor.TenantID,
				RifaID:    rifaID,
				NumeroID:  n.ID,
				UserID:    n.UserID,
				PaymentID: *n.PaymentID,
				Valor:     raffle.PrecoNumero,
				Metodo:    models.PaymentMethodPix,
				Status:    models.PaymentLogEstornado,
			}); err != nil {
				return err
			}
		}

		if err := writeAudit(ctx, repos.Audit, actor, models.AuditAdminCancelNumber, entityNumber, n.ID,
			map[string]interface{}{"status": n.Status, "user_id": n.UserID},
			map[string]interface{}{"status": models.NumberCancelled}); err != nil {
			return err
		}

		n.Status = models.NumberCancelled
		cancelled = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, models.EventNumberCancelled, numberEvent(cancelled, s.now()))
	metrics.PaymentsConfirmed.WithLabelValues("admin", string(models.NumberCancelled)).Inc()

	return &models.MessageResponse{Message: i18n.T(i18n.MsgNumberCancelled, map[string]any{"Numero": numero})}, nil
}

// AdminMarkPaid confirms a claimed number without a provider callback
func (s *ReservationService) AdminMarkPaid(ctx context.Context, actor models.Actor, rifaID, numero, metodo string) (*models.MessageResponse, error) {
	if metodo == "" {
		metodo = models.PaymentMethodPix
	}

	var paid *models.Number

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		raffle, n, err := lockRaffleNumber(ctx, repos, actor.TenantID, rifaID, numero)
		if err != nil {
			return err
		}

		switch {
		case n.Status == models.NumberPaid:
			return nil
		case n.Status.Claimable() || n.UserID == nil:
			return fmt.Errorf("%w: numero %s is not claimed", apperrors.ErrValidation, numero)
		case n.Status == models.NumberCancelled:
			return fmt.Errorf("%w: numero %s is cancelled", apperrors.ErrInvalidTransition, numero)
		}

		paymentID := "MANUAL-" + uuid.New().String()
		if n.PaymentID != nil && *n.PaymentID != "" {
			paymentID = *n.PaymentID
		}

		if err := repos.Numbers.MarkPaid(ctx, n.ID, paymentID); err != nil {
			return fmt.Errorf("failed to mark number paid: %w", err)
		}
		if err := repos.PaymentLogs.Insert(ctx, &models.PaymentLog{
			TenantID:  actor.TenantID,
			RifaID:    rifaID,
			NumeroID:  n.ID,
			UserID:    n.UserID,
			PaymentID: paymentID,
			Valor:     raffle.PrecoNumero,
			Metodo:    metodo,
			Status:    models.PaymentLogPago,
		}); err != nil {
			return err
		}
		if err := writeAudit(ctx, repos.Audit, actor, models.AuditAdminMarkPaid, entityNumber, n.ID,
			map[string]interface{}{"status": n.Status},
			map[string]interface{}{"status": models.NumberPaid, "payment_id": paymentID, "metodo": metodo}); err != nil {
			return err
		}

		n.Status = models.NumberPaid
		n.PaymentID = &paymentID
		n.ReservedUntil = nil
		paid = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paid != nil {
		publish(ctx, s.publisher, models.EventNumberPaid, numberEvent(paid, s.now()))
		metrics.PaymentsConfirmed.WithLabelValues("admin", string(models.NumberPaid)).Inc()
	}
	return &models.MessageResponse{Message: i18n.T(i18n.MsgNumberMarkedPaid, map[string]any{"Numero": numero})}, nil
}

func lockRaffleNumber(ctx context.Context, repos *repository.Repositories, tenantID, rifaID, numero string) (*models.Raffle, *models.Number, error) {
	raffle, err := repos.Raffles.GetByID(ctx, tenantID, rifaID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, nil, fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}

	n, err := repos.Numbers.GetForUpdate(ctx, tenantID, rifaID, numero)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock number: %w", err)
	}
	if n == nil {
		return nil, nil, fmt.Errorf("numero %s: %w", numero, apperrors.ErrNotFound)
	}
	return raffle, n, nil
}

func numberEvent(n *models.Number, now time.Time) models.NumberEvent {
	return models.NumberEvent{
		TenantID:  n.TenantID,
		RifaID:    n.RifaID,
		NumeroID:  n.ID,
		Numero:    n.Numero,
		Status:    n.Status,
		UserID:    n.UserID,
		PaymentID: n.PaymentID,
		ExpiresAt: n.ReservedUntil,
		Timestamp: now,
	}
}

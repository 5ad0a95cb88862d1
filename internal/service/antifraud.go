package service

import (
	"context"
	"fmt"
	"time"

	"rifas/internal/config"
	apperrors "rifas/internal/errors"
	"rifas/internal/logger"
	"rifas/internal/metrics"
	"rifas/internal/models"
	"rifas/internal/repository"
)

type AntifraudService struct {
	repos  *repository.Repositories
	limits config.AntifraudConfig
}

func NewAntifraudService(repos *repository.Repositories, limits config.AntifraudConfig) *AntifraudService {
	if limits.MaxActiveReservations <= 0 {
		limits.MaxActiveReservations = 5
	}
	if limits.MaxReservationsPerHour <= 0 {
		limits.MaxReservationsPerHour = 100
	}
	if limits.MaxExpirationsPerHour <= 0 {
		limits.MaxExpirationsPerHour = 10
	}
	return &AntifraudService{repos: repos, limits: limits}
}

// Check runs before every reservation. Admins are not limited.
func (s *AntifraudService) Check(ctx context.Context, actor models.Actor) error {
	if actor.IsAdmin() {
		return nil
	}

	blocked, err := s.repos.Blocked.IsBlocked(ctx, actor.TenantID, actor.ID, actor.IP)
	if err != nil {
		return fmt.Errorf("failed to check block list: %w", err)
	}
	if blocked {
		logger.WithContext(ctx).Warn("Blocked caller tried to reserve", "user_id", actor.ID, "ip", actor.IP)
		return fmt.Errorf("%w: blocked", apperrors.ErrForbidden)
	}

	active, err := s.repos.Numbers.CountActiveByUser(ctx, actor.TenantID, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to count active reservations: %w", err)
	}
	if active >= s.limits.MaxActiveReservations {
		return apperrors.ErrRateLimited
	}
	return nil
}

// Analyze blocks IPs and users above the hourly thresholds and returns how
// many new entries were created
func (s *AntifraudService) Analyze(ctx context.Context) (int, error) {
	since := time.Now().Add(-time.Hour)
	created := 0

	ips, err := s.repos.Audit.IPsAboveReservationRate(ctx, since, s.limits.MaxReservationsPerHour)
	if err != nil {
		return 0, fmt.Errorf("failed to analyze reservation rate: %w", err)
	}
	for _, o := range ips {
		reason := fmt.Sprintf("%d reservas na última hora", o.Count)
		ok, err := s.block(ctx, o, models.BlockedIP, reason)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	users, err := s.repos.Audit.UsersAboveExpirationRate(ctx, since, s.limits.MaxExpirationsPerHour)
	if err != nil {
		return created, fmt.Errorf("failed to analyze expiration rate: %w", err)
	}
	for _, o := range users {
		reason := fmt.Sprintf("%d reservas expiradas na última hora", o.Count)
		ok, err := s.block(ctx, o, models.BlockedUser, reason)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	return created, nil
}

func (s *AntifraudService) block(ctx context.Context, o repository.Offender, entityType, reason string) (bool, error) {
	ok, err := s.repos.Blocked.Block(ctx, &models.BlockedEntity{
		TenantID: o.TenantID,
		Type:     entityType,
		Value:    o.Value,
		Reason:   reason,
	})
	if err != nil {
		return false, fmt.Errorf("failed to block %s %s: %w", entityType, o.Value, err)
	}
	if ok {
		metrics.EntitiesBlocked.WithLabelValues(entityType).Inc()
		logger.WithContext(ctx).Warn("Auto-blocked entity",
			"tenant_id", o.TenantID,
			"type", entityType,
			"value", o.Value,
			"count", o.Count)
	}
	return ok, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"rifas/internal/logger"
	"rifas/internal/models"
	"rifas/internal/repository"
)

type SettingsService struct {
	repos *repository.Repositories
}

func NewSettingsService(repos *repository.Repositories) *SettingsService {
	return &SettingsService{repos: repos}
}

func (s *SettingsService) Get(ctx context.Context, tenantID string) (*models.AdminSettings, error) {
	settings, err := s.repos.Settings.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// Update applies the fields present in req on top of the stored settings
func (s *SettingsService) Update(ctx context.Context, actor models.Actor, req *models.UpdateSettingsRequest) (*models.AdminSettings, error) {
	settings, err := s.Get(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	old := *settings

	applySettings(settings, req)

	if err := s.repos.Settings.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	if err := writeAudit(ctx, s.repos.Audit, actor, models.AuditSettingsUpdated, "admin_settings", actor.TenantID, old, settings); err != nil {
		logger.WithContext(ctx).Error("Failed to audit settings change", "error", err)
	}
	return settings, nil
}

func applySettings(settings *models.AdminSettings, req *models.UpdateSettingsRequest) {
	if req.PixKey != nil {
		settings.PixKey = strings.TrimSpace(*req.PixKey)
	}
	if req.AcceptPix != nil {
		settings.AcceptPix = req.AcceptPix.Bool()
	}
	if req.AcceptDebito != nil {
		settings.AcceptDebito = req.AcceptDebito.Bool()
	}
	if req.AcceptCredito != nil {
		settings.AcceptCredito = req.AcceptCredito.Bool()
	}
	if req.ReservationTimeoutMinutes != nil {
		settings.ReservationTimeoutMinutes = *req.ReservationTimeoutMinutes
	}
	if req.FechamentoMinutos != nil {
		settings.FechamentoMinutos = *req.FechamentoMinutos
	}
}

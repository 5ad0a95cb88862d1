package repository

import (
	"context"
	"database/sql"

	"rifas/internal/models"
)

type SettingsRepository struct {
	db DBTX
}

func NewSettingsRepository(db DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the tenant settings, or the defaults when none were saved
func (r *SettingsRepository) Get(ctx context.Context, tenantID string) (*models.AdminSettings, error) {
	s := &models.AdminSettings{}
	query := `
		SELECT tenant_id, pix_key, accept_pix, accept_debito, accept_credito,
		       reservation_timeout_minutes, fechamento_minutos, updated_at
		FROM admin_settings
		WHERE tenant_id = $1`

	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&s.TenantID,
		&s.PixKey,
		&s.AcceptPix,
		&s.AcceptDebito,
		&s.AcceptCredito,
		&s.ReservationTimeoutMinutes,
		&s.FechamentoMinutos,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.DefaultAdminSettings(tenantID), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *models.AdminSettings) error {
	query := `
		INSERT INTO admin_settings (tenant_id, pix_key, accept_pix, accept_debito, accept_credito,
		                            reservation_timeout_minutes, fechamento_minutos)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id) DO UPDATE
		SET pix_key = EXCLUDED.pix_key,
		    accept_pix = EXCLUDED.accept_pix,
		    accept_debito = EXCLUDED.accept_debito,
		    accept_credito = EXCLUDED.accept_credito,
		    reservation_timeout_minutes = EXCLUDED.reservation_timeout_minutes,
		    fechamento_minutos = EXCLUDED.fechamento_minutos,
		    updated_at = NOW()
		RETURNING updated_at`

	return r.db.QueryRowContext(ctx, query,
		s.TenantID,
		s.PixKey,
		s.AcceptPix,
		s.AcceptDebito,
		s.AcceptCredito,
		s.ReservationTimeoutMinutes,
		s.FechamentoMinutos,
	).Scan(&s.UpdatedAt)
}

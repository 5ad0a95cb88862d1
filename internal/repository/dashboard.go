package repository

import (
	"context"

	"rifas/internal/models"
)

// DashboardRepository computes the tenant-wide admin aggregates
type DashboardRepository struct {
	db DBTX
}

func NewDashboardRepository(db DBTX) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary leaves TaxaConversao for the caller; Reservations is the
// number of recorded reservations it is computed from.
func (r *DashboardRepository) Summary(ctx context.Context, tenantID string) (*models.DashboardSummary, int, error) {
	s := &models.DashboardSummary{}
	var reservations int
	query := `
		SELECT
			(SELECT COALESCE(SUM(valor), 0) FROM payment_logs WHERE tenant_id = $1 AND status = 'pago'),
			(SELECT COALESCE(SUM(valor), 0) FROM payment_logs WHERE tenant_id = $1 AND status = 'cancelado'),
			(SELECT COUNT(*) FROM payment_logs WHERE tenant_id = $1 AND status = 'pago'),
			(SELECT COUNT(*) FROM rifas WHERE tenant_id = $1 AND status = 'ativa'),
			(SELECT COUNT(*) FROM rifas WHERE tenant_id = $1 AND status IN ('encerrada', 'apurada')),
			(SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND is_active),
			(SELECT COUNT(*) FROM audit_logs WHERE tenant_id = $1 AND action = $2)`

	err := r.db.QueryRowContext(ctx, query, tenantID, models.AuditReserveNumber).Scan(
		&s.TotalArrecadado,
		&s.TotalCancelado,
		&s.TotalPagoCount,
		&s.RifasAtivas,
		&s.RifasEncerradas,
		&s.UsuariosAtivos,
		&reservations,
	)
	if err != nil {
		return nil, 0, err
	}
	return s, reservations, nil
}

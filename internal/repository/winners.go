package repository

import (
	"context"

	"rifas/internal/models"
)

type WinnerRepository struct {
	db DBTX
}

func NewWinnerRepository(db DBTX) *WinnerRepository {
	return &WinnerRepository{db: db}
}

func (r *WinnerRepository) DeleteByRaffle(ctx context.Context, rifaID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rifa_ganhadores WHERE rifa_id = $1`, rifaID)
	return err
}

// Insert is a no-op when the number is already recorded as a winner
func (r *WinnerRepository) Insert(ctx context.Context, w *models.Winner) error {
	query := `
		INSERT INTO rifa_ganhadores (rifa_id, rifa_numero_id, user_id, tenant_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (rifa_id, rifa_numero_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, w.RifaID, w.RifaNumeroID, w.UserID, w.TenantID)
	return err
}

// WinnerDetail is a winner joined with the number and its owner
type WinnerDetail struct {
	UserID string
	Numero string
	Email  string
	Name   string
	Phone  *string
	OptIn  bool
}

func (r *WinnerRepository) ListByRaffle(ctx context.Context, tenantID, rifaID string) ([]WinnerDetail, error) {
	query := `
		SELECT g.user_id, n.numero, u.email, u.name, u.phone, u.whatsapp_opt_in
		FROM rifa_ganhadores g
		JOIN rifa_numeros n ON n.id = g.rifa_numero_id
		JOIN users u ON u.id = g.user_id
		WHERE g.tenant_id = $1 AND g.rifa_id = $2
		ORDER BY n.numero`

	rows, err := r.db.QueryContext(ctx, query, tenantID, rifaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	winners := []WinnerDetail{}
	for rows.Next() {
		var w WinnerDetail
		if err := rows.Scan(&w.UserID, &w.Numero, &w.Email, &w.Name, &w.Phone, &w.OptIn); err != nil {
			return nil, err
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

func (r *WinnerRepository) CountByRaffle(ctx context.Context, rifaID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rifa_ganhadores WHERE rifa_id = $1`, rifaID).Scan(&count)
	return count, err
}

// Recent lists the latest winners of a tenant
func (r *WinnerRepository) Recent(ctx context.Context, tenantID string, limit int) ([]models.RecentWinner, error) {
	query := `
		SELECT u.name, r.titulo, n.numero, g.created_at
		FROM rifa_ganhadores g
		JOIN rifas r ON r.id = g.rifa_id
		JOIN rifa_numeros n ON n.id = g.rifa_numero_id
		JOIN users u ON u.id = g.user_id
		WHERE g.tenant_id = $1
		ORDER BY g.created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	winners := []models.RecentWinner{}
	for rows.Next() {
		var w models.RecentWinner
		if err := rows.Scan(&w.UserName, &w.RifaTitle, &w.Numero, &w.DataGanho); err != nil {
			return nil, err
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rifas/internal/models"
)

type PaymentLogRepository struct {
	db DBTX
}

func NewPaymentLogRepository(db DBTX) *PaymentLogRepository {
	return &PaymentLogRepository{db: db}
}

func (r *PaymentLogRepository) Insert(ctx context.Context, entry *models.PaymentLog) error {
	query := `
		INSERT INTO payment_logs (tenant_id, rifa_id, numero_id, user_id, payment_id, valor, metodo, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.TenantID,
		entry.RifaID,
		entry.NumeroID,
		entry.UserID,
		entry.PaymentID,
		entry.Valor,
		entry.Metodo,
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment log: %w", err)
	}
	return nil
}

// ListByRaffle returns the finance records of a raffle, oldest first
func (r *PaymentLogRepository) ListByRaffle(ctx context.Context, tenantID, rifaID string) ([]models.PaymentLog, error) {
	query := `
		SELECT p.id, p.tenant_id, p.rifa_id, p.numero_id, n.numero, p.user_id, p.payment_id,
		       p.valor, p.metodo, p.status, p.created_at
		FROM payment_logs p
		JOIN rifa_numeros n ON n.id = p.numero_id
		WHERE p.tenant_id = $1 AND p.rifa_id = $2
		ORDER BY p.created_at`

	rows, err := r.db.QueryContext(ctx, query, tenantID, rifaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.PaymentLog{}
	for rows.Next() {
		var p models.PaymentLog
		if err := rows.Scan(
			&p.ID,
			&p.TenantID,
			&p.RifaID,
			&p.NumeroID,
			&p.Numero,
			&p.UserID,
			&p.PaymentID,
			&p.Valor,
			&p.Metodo,
			&p.Status,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, p)
	}
	return logs, rows.Err()
}

// PaidTotals returns the collected amount and the count of paid numbers
func (r *PaymentLogRepository) PaidTotals(ctx context.Context, rifaID string) (models.Money, int, error) {
	var total models.Money
	var count int
	query := `
		SELECT COALESCE(SUM(r.preco_numero), 0), COUNT(n.id)
		FROM rifa_numeros n
		JOIN rifas r ON r.id = n.rifa_id
		WHERE n.rifa_id = $1 AND n.status = 'pago'`
	err := r.db.QueryRowContext(ctx, query, rifaID).Scan(&total, &count)
	return total, count, err
}

// FinanceFilter narrows the finance queries. Empty fields match everything.
type FinanceFilter struct {
	RifaID string
	Start  *time.Time
	End    *time.Time
}

func (f FinanceFilter) where(tenantID string) (string, []interface{}) {
	where := []string{"p.tenant_id = $1"}
	args := []interface{}{tenantID}
	if f.RifaID != "" {
		args = append(args, f.RifaID)
		where = append(where, fmt.Sprintf("p.rifa_id = $%d", len(args)))
	}
	if f.Start != nil {
		args = append(args, *f.Start)
		where = append(where, fmt.Sprintf("p.created_at >= $%d", len(args)))
	}
	if f.End != nil {
		args = append(args, *f.End)
		where = append(where, fmt.Sprintf("p.created_at <= $%d", len(args)))
	}
	return strings.Join(where, " AND "), args
}

// Recent returns the newest finance records matching filter
func (r *PaymentLogRepository) Recent(ctx context.Context, tenantID string, filter FinanceFilter, limit int) ([]models.PaymentLog, error) {
	clause, args := filter.where(tenantID)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT p.id, p.tenant_id, p.rifa_id, p.numero_id, n.numero, p.user_id, p.payment_id,
		       p.valor, p.metodo, p.status, p.created_at
		FROM payment_logs p
		JOIN rifa_numeros n ON n.id = p.numero_id
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d`, clause, len(args))

	rows, err := queryRead(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment logs: %w", err)
	}
	defer rows.Close()

	logs := []models.PaymentLog{}
	for rows.Next() {
		var p models.PaymentLog
		if err := rows.Scan(
			&p.ID,
			&p.TenantID,
			&p.RifaID,
			&p.NumeroID,
			&p.Numero,
			&p.UserID,
			&p.PaymentID,
			&p.Valor,
			&p.Metodo,
			&p.Status,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, p)
	}
	return logs, rows.Err()
}

// Totals sums the paid and the cancelled records matching filter
func (r *PaymentLogRepository) Totals(ctx context.Context, tenantID string, filter FinanceFilter) (paid, canceled models.Money, err error) {
	clause, args := filter.where(tenantID)
	query := `
		SELECT COALESCE(SUM(p.valor) FILTER (WHERE p.status = 'pago'), 0),
		       COALESCE(SUM(p.valor) FILTER (WHERE p.status = 'cancelado'), 0)
		FROM payment_logs p
		WHERE ` + clause
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&paid, &canceled)
	return paid, canceled, err
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rifas/internal/models"
)

type NumberRepository struct {
	db DBTX
}

func NewNumberRepository(db DBTX) *NumberRepository {
	return &NumberRepository{db: db}
}

const numberColumns = `id, rifa_id, tenant_id, numero, status, premio_status, user_id, payment_id,
	reserved_until, created_at, updated_at`

func scanNumber(row interface{ Scan(...interface{}) error }) (*models.Number, error) {
	n := &models.Number{}
	err := row.Scan(
		&n.ID,
		&n.RifaID,
		&n.TenantID,
		&n.Numero,
		&n.Status,
		&n.PremioStatus,
		&n.UserID,
		&n.PaymentID,
		&n.ReservedUntil,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func collectNumbers(rows *sql.Rows) ([]models.Number, error) {
	defer rows.Close()

	numbers := []models.Number{}
	for rows.Next() {
		n, err := scanNumber(rows)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, *n)
	}
	return numbers, rows.Err()
}

// BulkCreate inserts the whole number space with COPY. Must run inside a
// transaction.
func (r *NumberRepository) BulkCreate(ctx context.Context, tenantID, rifaID string, numeros []string) error {
	tx, ok := r.db.(*sql.Tx)
	if !ok {
		return fmt.Errorf("bulk number creation requires a transaction")
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("rifa_numeros", "rifa_id", "tenant_id", "numero"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, numero := range numeros {
		if _, err := stmt.ExecContext(ctx, rifaID, tenantID, numero); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy number %s: %w", numero, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	return stmt.Close()
}

func (r *NumberRepository) ListByRaffle(ctx context.Context, tenantID, rifaID string) ([]models.Number, error) {
	query := `SELECT ` + numberColumns + ` FROM rifa_numeros WHERE tenant_id = $1 AND rifa_id = $2 ORDER BY numero`
	rows, err := queryRead(ctx, r.db, query, tenantID, rifaID)
	if err != nil {
		return nil, err
	}
	return collectNumbers(rows)
}

// GetForUpdate locks one number of a raffle
func (r *NumberRepository) GetForUpdate(ctx context.Context, tenantID, rifaID, numero string) (*models.Number, error) {
	query := `SELECT ` + numberColumns + ` FROM rifa_numeros
		WHERE tenant_id = $1 AND rifa_id = $2 AND numero = $3 FOR UPDATE`
	return scanNumber(r.db.QueryRowContext(ctx, query, tenantID, rifaID, numero))
}

// GetByPaymentIDForUpdate locks the number holding a payment reference
func (r *NumberRepository) GetByPaymentIDForUpdate(ctx context.Context, paymentID string) (*models.Number, error) {
	query := `SELECT ` + numberColumns + ` FROM rifa_numeros WHERE payment_id = $1 FOR UPDATE`
	return scanNumber(r.db.QueryRowContext(ctx, query, paymentID))
}

func (r *NumberRepository) GetByPaymentID(ctx context.Context, tenantID, paymentID string) (*models.Number, error) {
	query := `SELECT ` + numberColumns + ` FROM rifa_numeros WHERE tenant_id = $1 AND payment_id = $2`
	return scanNumber(r.db.QueryRowContext(ctx, query, tenantID, paymentID))
}

func (r *NumberRepository) Reserve(ctx context.Context, id, userID, paymentID string, until time.Time) error {
	query := `
		UPDATE rifa_numeros
		SET status = 'reservado', user_id = $2, payment_id = $3, reserved_until = $4,
		    premio_status = 'PENDING', updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, userID, paymentID, until)
	return err
}

// Release returns a number to livre and clears its claim
func (r *NumberRepository) Release(ctx context.Context, id string) error {
	query := `
		UPDATE rifa_numeros
		SET status = 'livre', user_id = NULL, payment_id = NULL, reserved_until = NULL,
		    premio_status = 'PENDING', updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *NumberRepository) MarkPaid(ctx context.Context, id, paymentID string) error {
	query := `
		UPDATE rifa_numeros
		SET status = 'pago', payment_id = $2, reserved_until = NULL, updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, paymentID)
	return err
}

func (r *NumberRepository) Cancel(ctx context.Context, id string) error {
	query := `
		UPDATE rifa_numeros
		SET status = 'cancelado', reserved_until = NULL, updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// CountActiveByUser counts unexpired reservations held by a user
func (r *NumberRepository) CountActiveByUser(ctx context.Context, tenantID, userID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM rifa_numeros
		WHERE tenant_id = $1 AND user_id = $2 AND status = 'reservado' AND reserved_until > NOW()`
	err := r.db.QueryRowContext(ctx, query, tenantID, userID).Scan(&count)
	return count, err
}

// LockExpired selects overdue reservations, skipping rows other workers hold
func (r *NumberRepository) LockExpired(ctx context.Context, now time.Time, limit int) ([]models.Number, error) {
	query := `SELECT ` + numberColumns + ` FROM rifa_numeros
		WHERE status = 'reservado' AND reserved_until < $1
		ORDER BY reserved_until
		LIMIT $2
		FOR UPDATE SKIP LOCKED`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	return collectNumbers(rows)
}

func (r *NumberRepository) ListPaidByRaffle(ctx context.Context, tenantID, rifaID string) ([]models.Number, error) {
	query := `SELECT ` + numberColumns + ` FROM rifa_numeros
		WHERE tenant_id = $1 AND rifa_id = $2 AND status = 'pago' ORDER BY numero FOR UPDATE`
	rows, err := r.db.QueryContext(ctx, query, tenantID, rifaID)
	if err != nil {
		return nil, err
	}
	return collectNumbers(rows)
}

// SetPrizeStatus marks the given numbers with one prize status
func (r *NumberRepository) SetPrizeStatus(ctx context.Context, ids []string, status models.PrizeStatus) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE rifa_numeros SET premio_status = $2, updated_at = NOW() WHERE id = ANY($1)`
	_, err := r.db.ExecContext(ctx, query, pq.Array(ids), status)
	return err
}

// StatusCounts returns how many numbers of a raffle are in each status
func (r *NumberRepository) StatusCounts(ctx context.Context, rifaID string) (map[models.NumberStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM rifa_numeros WHERE rifa_id = $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, rifaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.NumberStatus]int)
	for rows.Next() {
		var status models.NumberStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// PurchaseRow is one owned number joined with its raffle
type PurchaseRow struct {
	Raffle models.Raffle
	Number models.Number
}

// ListOwnedByUser returns every reserved or paid number of a user with its
// raffle, newest raffle first
func (r *NumberRepository) ListOwnedByUser(ctx context.Context, tenantID, userID string) ([]PurchaseRow, error) {
	query := `
		SELECT r.id, r.titulo, r.status, r.data_sorteio, r.resultado,
		       n.numero, n.status, n.premio_status, n.updated_at
		FROM rifa_numeros n
		JOIN rifas r ON r.id = n.rifa_id
		WHERE n.tenant_id = $1 AND n.user_id = $2 AND n.status IN ('reservado', 'pago')
		ORDER BY r.data_sorteio DESC, r.id, n.numero`

	rows, err := r.db.QueryContext(ctx, query, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PurchaseRow
	for rows.Next() {
		var p PurchaseRow
		if err := rows.Scan(
			&p.Raffle.ID,
			&p.Raffle.Titulo,
			&p.Raffle.Status,
			&p.Raffle.DataSorteio,
			&p.Raffle.Resultado,
			&p.Number.Numero,
			&p.Number.Status,
			&p.Number.PremioStatus,
			&p.Number.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

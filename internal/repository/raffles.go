package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"rifas/internal/models"
	"rifas/internal/search"
)

type RaffleRepository struct {
	db DBTX
}

func NewRaffleRepository(db DBTX) *RaffleRepository {
	return &RaffleRepository{db: db}
}

const raffleColumns = `id, tenant_id, owner_id, titulo, descricao, preco_numero, valor_premio, tipo_rifa,
	local_sorteio, data_sorteio, hora_encerramento, status, resultado, created_at, updated_at`

func scanRaffle(row interface{ Scan(...interface{}) error }) (*models.Raffle, error) {
	r := &models.Raffle{}
	err := row.Scan(
		&r.ID,
		&r.TenantID,
		&r.OwnerID,
		&r.Titulo,
		&r.Descricao,
		&r.PrecoNumero,
		&r.ValorPremio,
		&r.TipoRifa,
		&r.LocalSorteio,
		&r.DataSorteio,
		&r.HoraEncerramento,
		&r.Status,
		&r.Resultado,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func collectRaffles(rows *sql.Rows) ([]models.Raffle, error) {
	defer rows.Close()

	raffles := []models.Raffle{}
	for rows.Next() {
		r, err := scanRaffle(rows)
		if err != nil {
			return nil, err
		}
		raffles = append(raffles, *r)
	}
	return raffles, rows.Err()
}

func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	query := `
		INSERT INTO rifas (tenant_id, owner_id, titulo, descricao, preco_numero, valor_premio, tipo_rifa,
		                   local_sorteio, data_sorteio, hora_encerramento, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		raffle.TenantID,
		raffle.OwnerID,
		raffle.Titulo,
		raffle.Descricao,
		raffle.PrecoNumero,
		raffle.ValorPremio,
		raffle.TipoRifa,
		raffle.LocalSorteio,
		raffle.DataSorteio,
		raffle.HoraEncerramento,
		raffle.Status,
	).Scan(&raffle.ID, &raffle.CreatedAt, &raffle.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create raffle: %w", err)
	}
	return nil
}

func (r *RaffleRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM rifas WHERE tenant_id = $1 AND id = $2`
	return scanRaffle(r.db.QueryRowContext(ctx, query, tenantID, id))
}

// GetForUpdate locks the raffle row for the rest of the transaction
func (r *RaffleRepository) GetForUpdate(ctx context.Context, tenantID, id string) (*models.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM rifas WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	return scanRaffle(r.db.QueryRowContext(ctx, query, tenantID, id))
}

// List returns the tenant's raffles, optionally filtered by status and a
// title substring
func (r *RaffleRepository) List(ctx context.Context, tenantID, status, q string) ([]models.Raffle, error) {
	args := []interface{}{tenantID}
	query := `SELECT ` + raffleColumns + ` FROM rifas WHERE tenant_id = $1`

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if q != "" {
		args = append(args, search.ILikePattern(q))
		query += fmt.Sprintf(" AND (titulo ILIKE $%d OR descricao ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY data_sorteio ASC, created_at DESC"

	rows, err := queryRead(ctx, r.db, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRaffles(rows)
}

// ListByIDs keeps the order of ids, skipping ids that no longer exist
func (r *RaffleRepository) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Raffle, error) {
	if len(ids) == 0 {
		return []models.Raffle{}, nil
	}

	query := `SELECT ` + raffleColumns + ` FROM rifas WHERE tenant_id = $1 AND id = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	found, err := collectRaffles(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Raffle, len(found))
	for _, raffle := range found {
		byID[raffle.ID] = raffle
	}

	ordered := make([]models.Raffle, 0, len(found))
	for _, id := range ids {
		if raffle, ok := byID[id]; ok {
			ordered = append(ordered, raffle)
		}
	}
	return ordered, nil
}

// ListAll returns every raffle of every tenant, used to rebuild the index
func (r *RaffleRepository) ListAll(ctx context.Context) ([]models.Raffle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+raffleColumns+` FROM rifas ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return collectRaffles(rows)
}

func (r *RaffleRepository) Update(ctx context.Context, raffle *models.Raffle) error {
	query := `
		UPDATE rifas
		SET titulo = $3, descricao = $4, preco_numero = $5, valor_premio = $6,
		    local_sorteio = $7, data_sorteio = $8, hora_encerramento = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at`

	return r.db.QueryRowContext(ctx, query,
		raffle.TenantID,
		raffle.ID,
		raffle.Titulo,
		raffle.Descricao,
		raffle.PrecoNumero,
		raffle.ValorPremio,
		raffle.LocalSorteio,
		raffle.DataSorteio,
		raffle.HoraEncerramento,
	).Scan(&raffle.UpdatedAt)
}

func (r *RaffleRepository) UpdateStatus(ctx context.Context, tenantID, id string, status models.RaffleStatus) error {
	query := `UPDATE rifas SET status = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.ExecContext(ctx, query, tenantID, id, status)
	return err
}

func (r *RaffleRepository) SetResultado(ctx context.Context, tenantID, id, resultado string) error {
	query := `UPDATE rifas SET resultado = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.ExecContext(ctx, query, tenantID, id, resultado)
	return err
}

// CloseDue moves active raffles past their betting close to encerrada and
// returns them. Without hora_encerramento the close instant is
// data_sorteio minus the tenant's fechamento_minutos.
func (r *RaffleRepository) CloseDue(ctx context.Context, defaultFechamento int) ([]models.Raffle, error) {
	query := `
		UPDATE rifas AS r
		SET status = 'encerrada', updated_at = NOW()
		FROM rifas AS cur
		LEFT JOIN admin_settings s ON s.tenant_id = cur.tenant_id
		WHERE r.id = cur.id
		  AND cur.status = 'ativa'
		  AND COALESCE(
		        cur.hora_encerramento,
		        cur.data_sorteio - make_interval(mins => COALESCE(s.fechamento_minutos, $1))
		      ) <= NOW()
		RETURNING r.id, r.tenant_id, r.owner_id, r.titulo, r.descricao, r.preco_numero, r.valor_premio,
		          r.tipo_rifa, r.local_sorteio, r.data_sorteio, r.hora_encerramento, r.status, r.resultado,
		          r.created_at, r.updated_at`

	rows, err := r.db.QueryContext(ctx, query, defaultFechamento)
	if err != nil {
		return nil, fmt.Errorf("failed to close due raffles: %w", err)
	}
	return collectRaffles(rows)
}

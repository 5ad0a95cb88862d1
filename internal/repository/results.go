package repository

import (
	"context"
	"database/sql"
	"fmt"

	"rifas/internal/models"
)

type ResultRepository struct {
	db DBTX
}

func NewResultRepository(db DBTX) *ResultRepository {
	return &ResultRepository{db: db}
}

// Upsert stores the official result. A resubmission overwrites the previous
// value and clears apurado.
func (r *ResultRepository) Upsert(ctx context.Context, res *models.Result) error {
	query := `
		INSERT INTO rifa_resultados (rifa_id, tenant_id, tipo_rifa, resultado, local_sorteio, data_resultado, apurado, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		ON CONFLICT (rifa_id) DO UPDATE
		SET resultado = EXCLUDED.resultado,
		    local_sorteio = EXCLUDED.local_sorteio,
		    data_resultado = EXCLUDED.data_resultado,
		    tipo_rifa = EXCLUDED.tipo_rifa,
		    created_by = EXCLUDED.created_by,
		    apurado = FALSE,
		    updated_at = NOW()
		RETURNING id, apurado, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		res.RifaID,
		res.TenantID,
		res.TipoRifa,
		res.Resultado,
		res.LocalSorteio,
		res.DataResultado,
		res.CreatedBy,
	).Scan(&res.ID, &res.Apurado, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert result: %w", err)
	}
	return nil
}

func (r *ResultRepository) GetByRaffle(ctx context.Context, tenantID, rifaID string) (*models.Result, error) {
	res := &models.Result{}
	query := `
		SELECT id, rifa_id, tenant_id, tipo_rifa, resultado, local_sorteio, data_resultado, apurado,
		       created_by, created_at, updated_at
		FROM rifa_resultados
		WHERE tenant_id = $1 AND rifa_id = $2`

	err := r.db.QueryRowContext(ctx, query, tenantID, rifaID).Scan(
		&res.ID,
		&res.RifaID,
		&res.TenantID,
		&res.TipoRifa,
		&res.Resultado,
		&res.LocalSorteio,
		&res.DataResultado,
		&res.Apurado,
		&res.CreatedBy,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ResultRepository) MarkApurado(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE rifa_resultados SET apurado = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

package repository

import (
	"context"
	"database/sql"

	"rifas/internal/models"
)

type SorteioRepository struct {
	db DBTX
}

func NewSorteioRepository(db DBTX) *SorteioRepository {
	return &SorteioRepository{db: db}
}

const sorteioColumns = `id, tenant_id, nome, horario, ativo, created_at, updated_at`

func scanSorteio(row interface{ Scan(...interface{}) error }) (*models.Sorteio, error) {
	s := &models.Sorteio{}
	err := row.Scan(&s.ID, &s.TenantID, &s.Nome, &s.Horario, &s.Ativo, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns the tenant's sorteios ordered by time of day
func (r *SorteioRepository) List(ctx context.Context, tenantID string, onlyActive bool) ([]models.Sorteio, error) {
	query := `
		SELECT ` + sorteioColumns + `
		FROM sorteios
		WHERE tenant_id = $1 AND (NOT $2 OR ativo)
		ORDER BY horario, nome`

	rows, err := queryRead(ctx, r.db, query, tenantID, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sorteios := []models.Sorteio{}
	for rows.Next() {
		s, err := scanSorteio(rows)
		if err != nil {
			return nil, err
		}
		sorteios = append(sorteios, *s)
	}
	return sorteios, rows.Err()
}

func (r *SorteioRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Sorteio, error) {
	query := `SELECT ` + sorteioColumns + ` FROM sorteios WHERE tenant_id = $1 AND id = $2`
	return scanSorteio(r.db.QueryRowContext(ctx, query, tenantID, id))
}

// GetActiveByName matches the name case-insensitively
func (r *SorteioRepository) GetActiveByName(ctx context.Context, tenantID, nome string) (*models.Sorteio, error) {
	query := `SELECT ` + sorteioColumns + ` FROM sorteios WHERE tenant_id = $1 AND LOWER(nome) = LOWER($2) AND ativo`
	return scanSorteio(r.db.QueryRowContext(ctx, query, tenantID, nome))
}

func (r *SorteioRepository) Create(ctx context.Context, s *models.Sorteio) error {
	query := `
		INSERT INTO sorteios (tenant_id, nome, horario, ativo)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query, s.TenantID, s.Nome, s.Horario, s.Ativo).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update reports false when the sorteio does not exist
func (r *SorteioRepository) Update(ctx context.Context, s *models.Sorteio) (bool, error) {
	query := `
		UPDATE sorteios
		SET nome = $3, horario = $4, ativo = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, s.TenantID, s.ID, s.Nome, s.Horario, s.Ativo).Scan(&s.UpdatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Delete reports false when the sorteio does not exist
func (r *SorteioRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sorteios WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

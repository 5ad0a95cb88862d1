package repository

import (
	"context"
	"database/sql"
	"fmt"

	"rifas/internal/models"
)

type TenantRepository struct {
	db DBTX
}

func NewTenantRepository(db DBTX) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = `id, name, slug, COALESCE(host, ''), created_at`

func scanTenant(row interface{ Scan(...interface{}) error }) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Host, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlugOrHost resolves a tenant from the X-Tenant header or the Host
func (r *TenantRepository) GetBySlugOrHost(ctx context.Context, lookup string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1 OR host = $1 LIMIT 1`
	return scanTenant(r.db.QueryRowContext(ctx, query, lookup))
}

func (r *TenantRepository) Create(ctx context.Context, t *models.Tenant) error {
	query := `
		INSERT INTO tenants (name, slug, host)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at`

	if err := r.db.QueryRowContext(ctx, query, t.Name, t.Slug, t.Host).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

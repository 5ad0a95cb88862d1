package repository

import (
	"context"

	"rifas/internal/models"
)

type BlockedRepository struct {
	db DBTX
}

func NewBlockedRepository(db DBTX) *BlockedRepository {
	return &BlockedRepository{db: db}
}

// IsBlocked checks the user id and the ip against the tenant's block list
func (r *BlockedRepository) IsBlocked(ctx context.Context, tenantID, userID, ip string) (bool, error) {
	var blocked bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blocked_entities
			WHERE tenant_id = $1
			  AND ((type = 'user' AND value = $2) OR (type = 'ip' AND value = $3))
		)`
	err := r.db.QueryRowContext(ctx, query, tenantID, userID, ip).Scan(&blocked)
	return blocked, err
}

// Block is idempotent and reports whether a new entry was created
func (r *BlockedRepository) Block(ctx context.Context, entity *models.BlockedEntity) (bool, error) {
	query := `
		INSERT INTO blocked_entities (tenant_id, type, value, reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, type, value) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, entity.TenantID, entity.Type, entity.Value, entity.Reason)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"rifas/internal/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tenant_id, email, name, phone, password_hash, role, is_active, whatsapp_opt_in, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.Name,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.WhatsappOptIn,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, tenantID, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND id = $2`
	return scanUser(r.db.QueryRowContext(ctx, query, tenantID, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, tenantID, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND LOWER(email) = LOWER($2)`
	return scanUser(r.db.QueryRowContext(ctx, query, tenantID, email))
}

// ListByIDs returns the users of a tenant with the given ids
func (r *UserRepository) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND id = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (tenant_id, email, name, phone, password_hash, role, is_active, whatsapp_opt_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		user.TenantID,
		user.Email,
		user.Name,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.WhatsappOptIn,
	).Scan(&user.ID, &user.CreatedAt)
}

// IsUniqueViolation reports a Postgres unique_violation
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// List pages through a tenant's users, newest first
func (r *UserRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]models.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	rows, err := queryRead(ctx, r.db, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// Update saves the admin-editable fields of a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET phone = $3, password_hash = $4, role = $5, is_active = $6, whatsapp_opt_in = $7
		WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.ExecContext(ctx, query,
		user.TenantID,
		user.ID,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.WhatsappOptIn,
	)
	return err
}

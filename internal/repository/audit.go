package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rifas/internal/models"
)

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// NewAuditLog builds an entry, marshalling old and new values to JSON
func NewAuditLog(action, entityType, entityID string, oldValue, newValue interface{}) (*models.AuditLog, error) {
	entry := &models.AuditLog{
		ActorRole:  "system",
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}

	if oldValue != nil {
		raw, err := json.Marshal(oldValue)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal old value: %w", err)
		}
		entry.OldValue = raw
	}
	if newValue != nil {
		raw, err := json.Marshal(newValue)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal new value: %w", err)
		}
		entry.NewValue = raw
	}
	return entry, nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (tenant_id, actor_id, actor_role, action, entity_type, entity_id,
		                        old_value, new_value, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.TenantID,
		entry.ActorID,
		entry.ActorRole,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		nullableJSON(entry.OldValue),
		nullableJSON(entry.NewValue),
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// Exists reports whether an action was already recorded for an entity
func (r *AuditRepository) Exists(ctx context.Context, action, entityType, entityID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM audit_logs WHERE action = $1 AND entity_type = $2 AND entity_id = $3)`
	err := r.db.QueryRowContext(ctx, query, action, entityType, entityID).Scan(&exists)
	return exists, err
}

// Offender is a tenant-scoped IP or user above an antifraud threshold
type Offender struct {
	TenantID string
	Value    string
	Count    int
}

// IPsAboveReservationRate finds IPs with more than max reservations since
func (r *AuditRepository) IPsAboveReservationRate(ctx context.Context, since time.Time, max int) ([]Offender, error) {
	query := `
		SELECT tenant_id, ip_address, COUNT(*)
		FROM audit_logs
		WHERE action = $1 AND created_at >= $2 AND ip_address IS NOT NULL AND tenant_id IS NOT NULL
		GROUP BY tenant_id, ip_address
		HAVING COUNT(*) > $3`
	return r.offenders(ctx, query, models.AuditReserveNumber, since, max)
}

// UsersAboveExpirationRate finds users whose reservations expired more
// than max times since
func (r *AuditRepository) UsersAboveExpirationRate(ctx context.Context, since time.Time, max int) ([]Offender, error) {
	query := `
		SELECT tenant_id, old_value->>'user_id', COUNT(*)
		FROM audit_logs
		WHERE action = $1 AND created_at >= $2 AND old_value->>'user_id' IS NOT NULL AND tenant_id IS NOT NULL
		GROUP BY tenant_id, old_value->>'user_id'
		HAVING COUNT(*) > $3`
	return r.offenders(ctx, query, models.AuditReservationExpired, since, max)
}

func (r *AuditRepository) offenders(ctx context.Context, query, action string, since time.Time, max int) ([]Offender, error) {
	rows, err := r.db.QueryContext(ctx, query, action, since, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Offender
	for rows.Next() {
		var o Offender
		if err := rows.Scan(&o.TenantID, &o.Value, &o.Count); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// List filters a tenant's audit trail, newest first
func (r *AuditRepository) List(ctx context.Context, tenantID string, q models.AuditQuery) ([]models.AuditLog, int, error) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	for _, f := range []struct{ column, value string }{
		{"entity_type", q.EntityType},
		{"action", q.Action},
		{"actor_id::text", q.ActorID},
		{"entity_id", q.EntityID},
	} {
		if f.value == "" {
			continue
		}
		args = append(args, f.value)
		where = append(where, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, actor_id, actor_role, action, entity_type, entity_id,
		       old_value, new_value, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, clause, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := queryRead(ctx, r.db, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var e models.AuditLog
		var oldValue, newValue []byte
		if err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&e.ActorID,
			&e.ActorRole,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&oldValue,
			&newValue,
			&e.IPAddress,
			&e.UserAgent,
			&e.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		e.OldValue = oldValue
		e.NewValue = newValue
		logs = append(logs, e)
	}
	return logs, total, rows.Err()
}

package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.AuditRepository {
	return &auditRepository{db: db}
}

// Record implements audit.AuditRepository. Called with a transaction context,
// the entry commits or rolls back with the change it describes.
func (r *auditRepository) Record(ctx context.Context, entry audit.Entry) error {
	q := GetQuerier(ctx, r.db)

	id, err := newID("audit log")
	if err != nil {
		return err
	}

	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		id, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, detailsJSON, entry.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// List implements audit.AuditRepository.
func (r *auditRepository) List(ctx context.Context, filter audit.AuditFilter) ([]audit.Entry, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []any
	argIdx := 1

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, *value)
		argIdx++
	}
	add("actor_id", filter.ActorID)
	add("entity_type", filter.EntityType)
	add("entity_id", filter.EntityID)
	add("action", filter.Action)

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, action, entity_type, entity_id, details, ip_address, created_at
		FROM audit_logs
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]audit.Entry, 0)
	for rows.Next() {
		var e audit.Entry
		var details []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &details, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, 0, fmt.Errorf("failed to decode audit details: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

package audit

import "context"

// AuditRepository - interface for audit_logs table. Rows are never updated.
type AuditRepository interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter AuditFilter) ([]Entry, int64, error)
}

type AuditFilter struct {
	ActorID    *string
	EntityType *string
	EntityID   *string
	Action     *string
	Page       int
	Limit      int
}

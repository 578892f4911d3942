package audit

import (
	"context"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

type AuditService interface {
	ListAuditLogs(ctx context.Context, caller user.Caller, filter AuditFilter) (ListAuditLogsResponse, error)
}

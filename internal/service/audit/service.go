package audit

import (
	"context"
	"fmt"
	"math"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

type AuditServiceImpl struct {
	audit.AuditRepository
}

func NewAuditService(auditRepository audit.AuditRepository) audit.AuditService {
	return &AuditServiceImpl{AuditRepository: auditRepository}
}

// ListAuditLogs implements audit.AuditService.
func (s *AuditServiceImpl) ListAuditLogs(ctx context.Context, caller user.Caller, filter audit.AuditFilter) (audit.ListAuditLogsResponse, error) {
	if !caller.Can(user.PermissionAuditView) {
		return audit.ListAuditLogsResponse{}, user.ErrInsufficientPermissions
	}
	if err := filter.Validate(); err != nil {
		return audit.ListAuditLogsResponse{}, err
	}

	entries, total, err := s.AuditRepository.List(ctx, filter)
	if err != nil {
		return audit.ListAuditLogsResponse{}, fmt.Errorf("failed to list audit logs: %w", err)
	}

	responses := make([]audit.AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, audit.NewAuditLogResponse(e))
	}

	return audit.ListAuditLogsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Entries:    responses,
	}, nil
}

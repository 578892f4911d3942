package audit

import (
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

type Action string

const (
	ActionLeaveApprove      Action = "leave_request.approve"
	ActionLeaveReject       Action = "leave_request.reject"
	ActionPayrollRunSubmit  Action = "payroll_run.submit"
	ActionCorrectionApprove Action = "attendance_correction.approve"
	ActionCorrectionReject  Action = "attendance_correction.reject"
	ActionUserCreate        Action = "user.create"
	ActionMFAEnable         Action = "user.mfa_enable"
	ActionDepartmentDelete  Action = "department.delete"
	ActionDesignationDelete Action = "designation.delete"
)

// Entry is one row of the append-only audit trail.
type Entry struct {
	ID         string
	ActorID    *string
	Action     Action
	EntityType string
	EntityID   string
	Details    map[string]any
	IPAddress  *string
	CreatedAt  time.Time
}

// NewEntry stamps an entry with the caller's identity and address.
func NewEntry(caller user.Caller, action Action, entityType, entityID string, details map[string]any) Entry {
	entry := Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if caller.UserID != "" {
		actor := caller.UserID
		entry.ActorID = &actor
	}
	if caller.IPAddress != "" {
		ip := caller.IPAddress
		entry.IPAddress = &ip
	}
	return entry
}

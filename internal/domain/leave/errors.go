package leave

import "errors"

var (
	ErrLeaveTypeNotFound            = errors.New("leave type not found")
	ErrLeaveTypeNameExists          = errors.New("leave type name already exists")
	ErrPolicyWindowExists           = errors.New("policy window already exists for this leave type and range")
	ErrBalanceNotFound              = errors.New("leave balance not found")
	ErrBalanceExists                = errors.New("leave balance already exists for this employee, leave type and year")
	ErrInsufficientBalance          = errors.New("insufficient leave balance")
	ErrLeaveRequestNotFound         = errors.New("leave request not found")
	ErrLeaveRequestAlreadyProcessed = errors.New("leave request already processed")
	ErrNoEmployeeRecord             = errors.New("caller is not linked to an employee record")
)

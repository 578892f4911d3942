package user

type Permission string

const (
	// Self Management
	PermissionViewOwnProfile Permission = "profile.view_own"

	// Leave Management
	PermissionLeaveViewOwn      Permission = "leave.view_own"
	PermissionLeaveCreate       Permission = "leave.create"
	PermissionLeaveViewAll      Permission = "leave.view_all"
	PermissionLeaveApprove      Permission = "leave.approve"
	PermissionLeaveManageTypes  Permission = "leave.manage_types"
	PermissionLeaveManageLedger Permission = "leave.manage_balances"

	// Payroll Management
	PermissionPayslipViewOwn Permission = "payslip.view_own"
	PermissionPayrollManage  Permission = "payroll.manage"
	PermissionPayrollRun     Permission = "payroll.run"

	// Employee Management
	PermissionEmployeeViewAll Permission = "employee.view_all"
	PermissionEmployeeManage  Permission = "employee.manage"

	// Attendance
	PermissionAttendanceClock   Permission = "attendance.clock"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceReview  Permission = "attendance.review"

	// Organisation master data
	PermissionMasterManage Permission = "master.manage"

	// User Management
	PermissionUserManage Permission = "user.manage"
	PermissionAuditView  Permission = "audit.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		// Admin has all permissions
		PermissionViewOwnProfile,
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveManageTypes,
		PermissionLeaveManageLedger,
		PermissionPayslipViewOwn,
		PermissionPayrollManage,
		PermissionPayrollRun,
		PermissionEmployeeViewAll,
		PermissionEmployeeManage,
		PermissionAttendanceClock,
		PermissionAttendanceViewAll,
		PermissionAttendanceReview,
		PermissionMasterManage,
		PermissionUserManage,
		PermissionAuditView,
	},
	RoleHRManager: {
		PermissionViewOwnProfile,
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveManageTypes,
		PermissionLeaveManageLedger,
		PermissionPayslipViewOwn,
		PermissionPayrollManage,
		PermissionPayrollRun,
		PermissionEmployeeViewAll,
		PermissionEmployeeManage,
		PermissionAttendanceClock,
		PermissionAttendanceViewAll,
		PermissionAttendanceReview,
		PermissionMasterManage,
		PermissionUserManage,
	},
	RoleEmployee: {
		// Employee has basic access
		PermissionViewOwnProfile,
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionPayslipViewOwn,
		PermissionAttendanceClock,
	},
	RoleApplicant: {
		PermissionViewOwnProfile,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}

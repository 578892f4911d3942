package user

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"      // System administrator - full access
	RoleHRManager Role = "hr_manager" // Manages leave, payroll and employees
	RoleEmployee  Role = "employee"   // Regular employee
	RoleApplicant Role = "applicant"  // External applicant, no HR data access
)

// Roles lists every assignable role.
var Roles = []Role{RoleAdmin, RoleHRManager, RoleEmployee, RoleApplicant}

func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	EmployeeID   *string
	IsActive     bool

	FailedLoginAttempts int
	LockedUntil         *time.Time
	// MFASecret is set by MFA setup; MFA is enforced only once MFAEnabled.
	MFASecret  *string
	MFAEnabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked reports whether too many failed logins have locked the account at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// IsPrivileged reports whether the user administers HR data.
func (u *User) IsPrivileged() bool {
	return u.Role == RoleAdmin || u.Role == RoleHRManager
}

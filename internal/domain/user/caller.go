package user

// Caller identifies the authenticated principal of a request.
// It is built once at the API boundary and passed into services explicitly.
type Caller struct {
	UserID     string
	Email      string
	EmployeeID *string
	Role       Role
	IPAddress  string
}

// IsPrivileged reports whether the caller may act on other employees' HR data.
func (c Caller) IsPrivileged() bool {
	return c.Role == RoleAdmin || c.Role == RoleHRManager
}

// Can reports whether the caller's role carries the permission.
func (c Caller) Can(permission Permission) bool {
	return HasPermission(c.Role, permission)
}

// OwnsEmployee reports whether the caller is linked to the given employee.
func (c Caller) OwnsEmployee(employeeID string) bool {
	return c.EmployeeID != nil && *c.EmployeeID == employeeID
}

// CanAccessEmployee reports whether the caller may read the given employee's records.
func (c Caller) CanAccessEmployee(employeeID string) bool {
	return c.IsPrivileged() || c.OwnsEmployee(employeeID)
}

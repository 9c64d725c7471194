package directory

import "time"

type Role string

const (
	RoleStaff    Role = "STAFF"    // Requester
	RoleIncharge Role = "INCHARGE" // Facility in-charge, first approver
	RolePO       Role = "PO"       // Programme officer
	RoleHR       Role = "HR"       // Human resources, scoped by location group
	RolePADM     Role = "PADM"     // Programme administrator, final approver
)

// AllRoles returns every role known to the directory
func AllRoles() []Role {
	return []Role{RoleStaff, RoleIncharge, RolePO, RoleHR, RolePADM}
}

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// User is the read-only organizational record used for routing.
// ReportsTo holds the manager's display name, not an id.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Title     string
	Location  string
	ReportsTo string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReportsToName reports whether u's manager link points at name
func (u User) ReportsToName(name string) bool {
	return u.ReportsTo != "" && u.ReportsTo == name
}

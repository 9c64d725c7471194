package approval

import (
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

// Policy is the fixed approval configuration of one request kind
type Policy struct {
	Kind         RequestKind
	Roles        []directory.Role
	InitialLabel string
	DeniedPrefix string
	// Prefixes written by older releases that still mean "rejected".
	LegacyDeniedPrefixes []string
}

var (
	LeavePolicy = Policy{
		Kind:         KindLeave,
		Roles:        []directory.Role{directory.RoleIncharge, directory.RolePO, directory.RoleHR, directory.RolePADM},
		InitialLabel: "Pending",
		DeniedPrefix: "Denied by: ",
	}

	TimesheetPolicy = Policy{
		Kind:                 KindTimesheet,
		Roles:                []directory.Role{directory.RoleIncharge, directory.RolePO, directory.RoleHR, directory.RolePADM},
		InitialLabel:         "Ready",
		DeniedPrefix:         "Denied by: ",
		LegacyDeniedPrefixes: []string{"Rejected by: "},
	}
)

// PolicyFor returns the policy of kind
func PolicyFor(kind RequestKind) (Policy, error) {
	switch kind {
	case KindLeave:
		return LeavePolicy, nil
	case KindTimesheet:
		return TimesheetPolicy, nil
	}
	return Policy{}, ErrUnknownRequestKind
}

// IndexOf returns the position of role in the sequence or -1
func (p Policy) IndexOf(role directory.Role) int {
	for i, r := range p.Roles {
		if r == role {
			return i
		}
	}
	return -1
}

// Contains reports whether role takes part in the sequence
func (p Policy) Contains(role directory.Role) bool {
	return p.IndexOf(role) >= 0
}

// First returns the role that acts first
func (p Policy) First() directory.Role {
	return p.Roles[0]
}

// Previous returns the role right before role
func (p Policy) Previous(role directory.Role) (directory.Role, bool) {
	i := p.IndexOf(role)
	if i <= 0 {
		return "", false
	}
	return p.Roles[i-1], true
}

// Next returns the role right after role
func (p Policy) Next(role directory.Role) (directory.Role, bool) {
	i := p.IndexOf(role)
	if i < 0 || i+1 >= len(p.Roles) {
		return "", false
	}
	return p.Roles[i+1], true
}

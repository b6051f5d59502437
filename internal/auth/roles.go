package auth

// Role is the closed set of account roles. Authorization goes through
// Can, never through string comparison at call sites.
type Role string

const (
	RoleAdmin      Role = "admin"
	RolePhysicist  Role = "physicist"
	RoleTherapist  Role = "therapist"
)

// Capability names an action gated by role.
type Capability string

const (
	CapManageUsers Capability = "manage_users"
	CapViewAudit   Capability = "view_audit"
	CapBackup      Capability = "backup"
	CapExport      Capability = "export"
)

// ParseRole validates a stored role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RolePhysicist, RoleTherapist:
		return Role(s), true
	}
	return "", false
}

// Can reports whether the role grants a capability. Today every listed
// capability is admin-only; QA recording itself only requires a login.
func (r Role) Can(c Capability) bool {
	switch c {
	case CapManageUsers, CapViewAudit, CapBackup, CapExport:
		return r == RoleAdmin
	}
	return false
}

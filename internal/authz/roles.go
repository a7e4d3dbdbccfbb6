package authz

// The four roles the organization runs on. Role membership comes from the
// identity provider's token claims; this package only decides what each role
// may do.
const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// IsPrivileged reports whether the role may act on any leave request
// regardless of the manager hierarchy.
func IsPrivileged(role string) bool {
	return role == RoleAdmin || role == RoleHR
}

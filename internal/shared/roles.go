package shared

import "strings"

// Role is the coarse access level stored on each user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole normalises a stored role value. Unknown values yield ok=false.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	default:
		return "", false
	}
}

// HomePath is where a user with the role lands after login.
func (r Role) HomePath() string {
	if r == RoleAdmin {
		return "/admin/dashboard"
	}
	return "/employee/dashboard"
}

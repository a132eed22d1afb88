package models

import "fmt"

// Role is the closed set of privilege levels. Roles are totally ordered:
// every capability of a lower role is held by all higher roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleOwner:
		return 3
	default:
		return 0
	}
}

// IsValid checks if the role is one of the predefined roles.
func (r Role) IsValid() bool {
	return r.rank() > 0
}

// AtLeast reports whether r grants every capability of min.
// Unknown roles grant nothing.
func (r Role) AtLeast(min Role) bool {
	return r.IsValid() && min.IsValid() && r.rank() >= min.rank()
}

// IsAdmin reports admin capability, which owners also hold.
func (r Role) IsAdmin() bool { return r.AtLeast(RoleAdmin) }

// IsOwner reports whether r is the owner role.
func (r Role) IsOwner() bool { return r == RoleOwner }

// ParseRole parses a stored role value.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

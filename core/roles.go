package core

import "fmt"

// Role is a caller category controlling which documents are visible.
type Role uint8

const (
	// RoleOwner is the uploading user; owners can always see their documents.
	RoleOwner Role = iota + 1
	// RoleStaff is an internal support user.
	RoleStaff
	// RoleExternal is an outside customer.
	RoleExternal
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleStaff:
		return "staff"
	case RoleExternal:
		return "external"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// ParseRole parses the wire/CLI form of a role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "owner":
		return RoleOwner, nil
	case "staff":
		return RoleStaff, nil
	case "external", "customer":
		return RoleExternal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// RoleSet is a capability set of roles, stored as a bitmask.
// A document's RoleSet lists which roles may retrieve from it.
type RoleSet uint8

// NewRoleSet builds a set from the given roles. RoleOwner is always included.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s.Normalize()
}

// With returns a copy of the set including r.
func (s RoleSet) With(r Role) RoleSet {
	return s | RoleSet(1)<<(r-1)
}

// Has reports whether r is a member of the set.
func (s RoleSet) Has(r Role) bool {
	return s&(RoleSet(1)<<(r-1)) != 0
}

// Normalize enforces the owner-visibility invariant: the owner role is a
// member of every document's set.
func (s RoleSet) Normalize() RoleSet {
	return s.With(RoleOwner)
}

// Roles returns the members of the set in declaration order.
func (s RoleSet) Roles() []Role {
	var out []Role
	for _, r := range []Role{RoleOwner, RoleStaff, RoleExternal} {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	out := ""
	for _, r := range s.Roles() {
		if out != "" {
			out += ","
		}
		out += r.String()
	}
	return out
}

package domain

import "fmt"

// Role is the closed set of roles a User can hold.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleDoctor   Role = "Doctor"
	RoleStaff    Role = "Staff"
	RolePharmacy Role = "Pharmacy"
	RolePatient  Role = "Patient"
)

// AllRoles lists every role in declaration order.
var AllRoles = []Role{RoleAdmin, RoleDoctor, RoleStaff, RolePharmacy, RolePatient}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleStaff, RolePharmacy, RolePatient:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role, rejecting anything outside the closed set.
// Matching is exact: "admin" is not "Admin".
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// RoleSet is an allow-list of roles. The zero value (empty set) means any
// authenticated role is acceptable.
type RoleSet map[Role]struct{}

// Roles builds a RoleSet from the given roles.
func Roles(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Permits reports whether r may pass a check against s.
func (s RoleSet) Permits(r Role) bool {
	if len(s) == 0 {
		return r.Valid()
	}
	_, ok := s[r]
	return ok
}

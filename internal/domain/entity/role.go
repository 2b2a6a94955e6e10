package entity

import "strings"

// Role is the closed set of roles a user can hold. Roles gate workflow
// management and decide who may act on an approval step.
type Role string

const (
	RoleEmployee  Role = "employee"
	RoleManager   Role = "manager"
	RoleHRManager Role = "hr_manager"
)

var validRoles = map[Role]bool{
	RoleEmployee:  true,
	RoleManager:   true,
	RoleHRManager: true,
}

// ParseRole normalizes a raw role string to its canonical Role value.
// Legacy "admin" records map to hr_manager. This is the only place role
// strings are interpreted; everywhere else compares Role constants.
func ParseRole(raw string) (Role, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "admin" {
		s = string(RoleHRManager)
	}
	r := Role(s)
	return r, validRoles[r]
}

// ParseRoleOrDefault returns the parsed role, falling back to employee
// for unknown values (matches registration behavior).
func ParseRoleOrDefault(raw string) Role {
	if r, ok := ParseRole(raw); ok {
		return r
	}
	return RoleEmployee
}

// IsValid returns true if the role is one of the defined constants.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the canonical string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Actor is a resolved caller identity: who is acting and in what role.
// Produced by the auth middleware; trusted by services and the engine.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

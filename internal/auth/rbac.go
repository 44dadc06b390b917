package auth

import (
	"fmt"
	"strings"
)

// Role is a member of the closed role set.
type Role string

const (
	RoleBasic Role = "basic"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// orderedRoles is the role set from least to most privileged.
var orderedRoles = []Role{RoleBasic, RoleUser, RoleAdmin}

// privilege levels; higher implies every capability of lower.
var roleLevels = func() map[Role]int {
	levels := make(map[Role]int, len(orderedRoles))
	for i, r := range orderedRoles {
		levels[r] = i + 1
	}
	return levels
}()

// InvalidRoleError is returned when a string does not name a known role.
type InvalidRoleError struct {
	Value string
	Valid []Role
}

func (e *InvalidRoleError) Error() string {
	names := make([]string, len(e.Valid))
	for i, r := range e.Valid {
		names[i] = string(r)
	}
	return fmt.Sprintf("invalid role %q: must be one of [%s]", e.Value, strings.Join(names, ", "))
}

// ParseRole converts a raw string into a Role.
func ParseRole(value string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(value)))
	if _, ok := roleLevels[role]; !ok {
		return "", &InvalidRoleError{Value: value, Valid: AllRoles()}
	}
	return role, nil
}

// IsValidRole reports whether value names a known role.
func IsValidRole(value string) bool {
	_, err := ParseRole(value)
	return err == nil
}

// LevelOf returns the privilege level of role, or 0 for unknown roles.
func LevelOf(role Role) int {
	return roleLevels[role]
}

// Satisfies reports whether actual carries at least the privilege of required.
// Unknown roles never satisfy anything and are never satisfied.
func Satisfies(actual, required Role) bool {
	have, ok := roleLevels[actual]
	if !ok {
		return false
	}
	need, ok := roleLevels[required]
	if !ok {
		return false
	}
	return have >= need
}

// RolesAtOrAbove returns every role whose level is >= that of min,
// ordered from least to most privileged.
func RolesAtOrAbove(min Role) []Role {
	floor, ok := roleLevels[min]
	if !ok {
		return nil
	}
	return append([]Role(nil), orderedRoles[floor-1:]...)
}

// AllRoles returns the role set ordered by privilege level.
// The returned slice is a copy.
func AllRoles() []Role {
	return append([]Role(nil), orderedRoles...)
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

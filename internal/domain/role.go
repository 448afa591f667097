package domain

import "strings"

// Role names a permission level. Values come from configuration.
type Role string

// RoleSet is the closed set of roles the deployment accepts. Membership is
// an exact, case-sensitive match.
type RoleSet struct {
	ordered []Role
	members map[Role]struct{}
}

// NewRoleSet builds a set from raw names, ignoring blanks and duplicates.
func NewRoleSet(names ...string) RoleSet {
	set := RoleSet{members: make(map[Role]struct{}, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		role := Role(name)
		if _, dup := set.members[role]; dup {
			continue
		}
		set.members[role] = struct{}{}
		set.ordered = append(set.ordered, role)
	}
	return set
}

// Contains reports whether the role belongs to the set.
func (s RoleSet) Contains(role Role) bool {
	_, ok := s.members[role]
	return ok
}

// List returns the roles in configuration order.
func (s RoleSet) List() []Role {
	return append([]Role(nil), s.ordered...)
}

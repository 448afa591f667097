package auth

import (
	"errors"

	"github.com/bsc-kit/scorecard-api/internal/config"
	"github.com/bsc-kit/scorecard-api/internal/domain"
)

// ErrUnknownRole is returned when a requested role is outside the configured set.
var ErrUnknownRole = errors.New("unknown role")

// RolePolicy holds the configured role enum and the roles with special meaning.
type RolePolicy struct {
	Roles   domain.RoleSet
	Default domain.Role
	Admin   domain.Role
}

// NewRolePolicy builds the policy from validated auth configuration.
func NewRolePolicy(cfg config.AuthConfig) RolePolicy {
	return RolePolicy{
		Roles:   domain.NewRoleSet(cfg.Roles...),
		Default: domain.Role(cfg.DefaultRole),
		Admin:   domain.Role(cfg.AdminRole),
	}
}

// Resolve maps a requested role to a member of the set. Empty means default.
func (p RolePolicy) Resolve(requested string) (domain.Role, error) {
	if requested == "" {
		return p.Default, nil
	}
	role := domain.Role(requested)
	if !p.Roles.Contains(role) {
		return "", ErrUnknownRole
	}
	return role, nil
}

func hasRole(role domain.Role, required []domain.Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

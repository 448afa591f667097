package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bsc-kit/scorecard-api/internal/domain"
	apperrors "github.com/bsc-kit/scorecard-api/pkg/util/errorutil"
)

const (
	claimKey = "auth_claim"
	tokenKey = "auth_token"
)

// Attach stores the caller's claim when a valid token is present. Requests
// without one pass through untouched.
func (a *Authorizer) Attach() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verified, ok := a.resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization)); ok {
			store(c, verified)
		}
		return c.Next()
	}
}

// Require enforces authentication and, when roles are given, that the
// caller holds one of them. It reuses a claim stored by Attach.
func (a *Authorizer) Require(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		verified, ok := TokenFromContext(c)
		if !ok {
			if verified, ok = a.resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization)); !ok {
				return apperrors.ErrUnauthenticated
			}
			store(c, verified)
		}
		if !hasRole(verified.Claim.Role, roles) {
			return apperrors.ErrForbidden
		}
		return c.Next()
	}
}

func store(c *fiber.Ctx, verified *VerifiedToken) {
	c.Locals(tokenKey, verified)
	claim := verified.Claim
	c.Locals(claimKey, &claim)
}

// ClaimFromContext retrieves the authenticated caller's claim.
func ClaimFromContext(c *fiber.Ctx) (*domain.Claim, bool) {
	val := c.Locals(claimKey)
	if val == nil {
		return nil, false
	}
	claim, ok := val.(*domain.Claim)
	return claim, ok
}

// TokenFromContext retrieves the verified token, including its id and expiry.
func TokenFromContext(c *fiber.Ctx) (*VerifiedToken, bool) {
	val := c.Locals(tokenKey)
	if val == nil {
		return nil, false
	}
	verified, ok := val.(*VerifiedToken)
	return verified, ok
}

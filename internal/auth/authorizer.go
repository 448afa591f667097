package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bsc-kit/scorecard-api/internal/domain"
	apperrors "github.com/bsc-kit/scorecard-api/pkg/util/errorutil"
)

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Authorizer derives the caller's identity from the Authorization header on
// every request. It keeps no session state of its own.
type Authorizer struct {
	tokens  *TokenManager
	revoked RevocationChecker
	logger  *zap.Logger
}

// NewAuthorizer constructs an authorizer. revoked may be nil for purely
// stateless operation.
func NewAuthorizer(tokens *TokenManager, revoked RevocationChecker, logger *zap.Logger) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{tokens: tokens, revoked: revoked, logger: logger}
}

// Identify returns the claim carried by a valid bearer token, or false.
// It never returns an error: a missing or bad token is a normal outcome.
func (a *Authorizer) Identify(ctx context.Context, header string) (*domain.Claim, bool) {
	verified, ok := a.resolve(ctx, header)
	if !ok {
		return nil, false
	}
	claim := verified.Claim
	return &claim, true
}

// Authorize requires an identity and, when roles are given, that the claim
// holds one of them.
func (a *Authorizer) Authorize(ctx context.Context, header string, required ...domain.Role) (*domain.Claim, error) {
	claim, ok := a.Identify(ctx, header)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	if !hasRole(claim.Role, required) {
		return nil, apperrors.ErrForbidden
	}
	return claim, nil
}

func (a *Authorizer) resolve(ctx context.Context, header string) (*VerifiedToken, bool) {
	raw, ok := ParseBearer(header)
	if !ok {
		return nil, false
	}

	verified, err := a.tokens.Verify(raw)
	if err != nil {
		a.logger.Debug("token rejected", zap.Error(err))
		return nil, false
	}

	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, verified.ID)
		if err != nil {
			a.logger.Warn("revocation lookup failed", zap.String("token_id", verified.ID), zap.Error(err))
			return nil, false
		}
		if revoked {
			a.logger.Debug("token revoked", zap.String("token_id", verified.ID))
			return nil, false
		}
	}

	return verified, true
}

// ParseBearer extracts the token from a "Bearer <token>" header value.
func ParseBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bsc-kit/scorecard-api/internal/auth"
	"github.com/bsc-kit/scorecard-api/internal/config"
	"github.com/bsc-kit/scorecard-api/internal/domain"
	"github.com/bsc-kit/scorecard-api/internal/events"
	"github.com/bsc-kit/scorecard-api/internal/repository"
	apperrors "github.com/bsc-kit/scorecard-api/pkg/util/errorutil"
)

// AuthService coordinates registration, login and logout.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	denylist   repository.TokenDenylist
	dispatcher events.Dispatcher
	logger     *zap.Logger
	roles      auth.RolePolicy
	bcryptCost int
	// dummyHash is compared against on unknown-email logins.
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
// Denylist and Dispatcher are optional.
type AuthDependencies struct {
	Users      repository.UserRepository
	Tokens     *auth.TokenManager
	Denylist   repository.TokenDenylist
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginResult is a successful login.
type LoginResult struct {
	Token domain.IssuedToken
	User  *domain.UserSummary
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cost := cfg.BcryptCost
	if cost < auth.MinBcryptCost {
		cost = auth.MinBcryptCost
	}
	dummy, err := auth.HashPassword("timing-equalizer", cost)
	if err != nil {
		logger.Error("failed to build dummy hash", zap.Error(err))
	}
	return &AuthService{
		users:      deps.Users,
		tokens:     deps.Tokens,
		denylist:   deps.Denylist,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		roles:      auth.NewRolePolicy(cfg),
		bcryptCost: cost,
		dummyHash:  dummy,
	}
}

// Register creates a new credential record and returns its public summary.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.UserSummary, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	role, err := s.roles.Resolve(in.Role)
	if err != nil {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{
			"role":    in.Role,
			"allowed": s.roles.Roles.List(),
		})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		Actor:   events.Actor{UserID: &user.ID, Role: string(user.Role)},
		Payload: events.UserPayload{UserID: user.ID, Email: user.Email, Role: string(user.Role)},
	})
	return user.Summary(), nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password produce the same error; only the audit log tells them apart.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		// Spend the same bcrypt work as a real comparison.
		_ = auth.ComparePassword(s.dummyHash, password)
		s.loginFailed(ctx, email, events.LoginUnknownEmail)
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.loginFailed(ctx, email, events.LoginWrongPassword)
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(domain.Claim{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventLoginSucceeded,
		Actor:   events.Actor{UserID: &user.ID, Role: string(user.Role)},
		Payload: events.UserPayload{UserID: user.ID, Email: user.Email, Role: string(user.Role)},
	})
	return &LoginResult{Token: token, User: user.Summary()}, nil
}

// Logout revokes the presented token when a denylist is configured.
// Without one, tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, token *auth.VerifiedToken) error {
	if s.denylist == nil || token == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	userID := token.Claim.UserID
	s.publish(ctx, events.Event{
		Type:    events.EventTokenRevoked,
		Actor:   events.Actor{UserID: &userID, Role: string(token.Claim.Role)},
		Payload: events.TokenRevokedPayload{TokenID: token.ID, ExpiresAt: token.ExpiresAt},
	})
	return nil
}

// RevocationEnabled reports whether Logout has any effect.
func (s *AuthService) RevocationEnabled() bool {
	return s.denylist != nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Roles exposes the role policy.
func (s *AuthService) Roles() auth.RolePolicy {
	return s.roles
}

func (s *AuthService) loginFailed(ctx context.Context, email string, reason events.LoginFailureReason) {
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Payload: events.LoginFailedPayload{Email: email, Reason: reason},
	})
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bsc-kit/scorecard-api/internal/auth"
	"github.com/bsc-kit/scorecard-api/internal/domain"
	"github.com/bsc-kit/scorecard-api/internal/events"
	"github.com/bsc-kit/scorecard-api/internal/repository"
	apperrors "github.com/bsc-kit/scorecard-api/pkg/util/errorutil"
)

// UserService manages credential records on behalf of authenticated callers.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	roles      auth.RolePolicy
	bcryptCost int
}

// UpdateUserInput carries a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}

// NewUserService builds the service, sharing role policy and hash cost with
// the auth service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, authService *AuthService) *UserService {
	return &UserService{
		users:      users,
		dispatcher: dispatcher,
		roles:      authService.roles,
		bcryptCost: authService.bcryptCost,
	}
}

// List returns every user summary.
func (s *UserService) List(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	result := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		result = append(result, *users[i].Summary())
	}
	return result, nil
}

// Get returns a single user summary.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.UserSummary, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Summary(), nil
}

// Update applies a partial update. A role change does not touch tokens that
// were already issued.
func (s *UserService) Update(ctx context.Context, actor domain.Claim, id int64, in UpdateUserInput) (*domain.UserSummary, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, apperrors.NewValidationError("email cannot be empty", nil)
		}
		if email != user.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, apperrors.ErrDuplicateEmail
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("lookup user: %w", err)
			}
		}
		user.Email = email
	}
	if in.Role != nil {
		if *in.Role == "" {
			return nil, apperrors.NewValidationError("role cannot be empty", nil)
		}
		role, err := s.roles.Resolve(*in.Role)
		if err != nil {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{
				"role":    *in.Role,
				"allowed": s.roles.Roles.List(),
			})
		}
		user.Role = role
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, apperrors.NewValidationError("password cannot be empty", nil)
		}
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperrors.ErrDuplicateEmail
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.publish(ctx, events.EventUserUpdated, actor, user)
	return user.Summary(), nil
}

// Delete removes a user and returns what was removed.
func (s *UserService) Delete(ctx context.Context, actor domain.Claim, id int64) (*domain.UserSummary, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}

	s.publish(ctx, events.EventUserDeleted, actor, user)
	return user.Summary(), nil
}

func (s *UserService) find(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, actor domain.Claim, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	actorID := actor.UserID
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:    eventType,
		Actor:   events.Actor{UserID: &actorID, Role: string(actor.Role)},
		Payload: events.UserPayload{UserID: user.ID, Email: user.Email, Role: string(user.Role)},
	})
}

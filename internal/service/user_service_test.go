package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-kit/scorecard-api/internal/domain"
	apperrors "github.com/bsc-kit/scorecard-api/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

func TestUserService_ListAndGet(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Name: "Ana", Email: "a@x.com", Password: "pw", Role: "ADMIN"})
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, RegisterInput{Name: "Luis", Email: "l@x.com", Password: "pw"})
	require.NoError(t, err)

	list, err := env.users.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserSummary{
		{ID: 1, Name: "Ana", Email: "a@x.com", Role: "ADMIN"},
		{ID: 2, Name: "Luis", Email: "l@x.com", Role: "USER"},
	}, list)

	got, err := env.users.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Luis", got.Name)

	_, err = env.users.Get(ctx, 99)
	assert.Equal(t, http.StatusNotFound, apperrors.ToDomainError(err).HTTPStatus)
}

func TestUserService_Update(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	admin := domain.Claim{UserID: 1, Role: "ADMIN"}

	_, err := env.auth.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw", Role: "ADMIN"})
	require.NoError(t, err)
	luis, err := env.auth.Register(ctx, RegisterInput{Email: "l@x.com", Password: "old"})
	require.NoError(t, err)

	updated, err := env.users.Update(ctx, admin, luis.ID, UpdateUserInput{
		Name:     strPtr("Luis"),
		Password: strPtr("new-password"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Luis", updated.Name)

	_, err = env.auth.Login(ctx, "l@x.com", "old")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, "l@x.com", "new-password")
	assert.NoError(t, err)

	_, err = env.users.Update(ctx, admin, luis.ID, UpdateUserInput{Email: strPtr("a@x.com")})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)

	for _, in := range []UpdateUserInput{
		{Email: strPtr(" ")},
		{Role: strPtr("")},
		{Role: strPtr("SUPERUSER")},
		{Password: strPtr("")},
	} {
		_, err = env.users.Update(ctx, admin, luis.ID, in)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	}

	_, err = env.users.Update(ctx, admin, 404, UpdateUserInput{Name: strPtr("x")})
	assert.Equal(t, http.StatusNotFound, apperrors.ToDomainError(err).HTTPStatus)
}

func TestUserService_DemotionKeepsIssuedRole(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	boss, err := env.auth.Register(ctx, RegisterInput{Email: "boss@x.com", Password: "pw", Role: "ADMIN"})
	require.NoError(t, err)
	login, err := env.auth.Login(ctx, "boss@x.com", "pw")
	require.NoError(t, err)

	_, err = env.users.Update(ctx, domain.Claim{UserID: boss.ID, Role: "ADMIN"}, boss.ID, UpdateUserInput{Role: strPtr("USER")})
	require.NoError(t, err)

	verified, err := env.tokens.Verify(login.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.Role("ADMIN"), verified.Claim.Role)

	relogin, err := env.auth.Login(ctx, "boss@x.com", "pw")
	require.NoError(t, err)
	verified, err = env.tokens.Verify(relogin.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.Role("USER"), verified.Claim.Role)
}

func TestUserService_Delete(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	admin := domain.Claim{UserID: 1, Role: "ADMIN"}

	u, err := env.auth.Register(ctx, RegisterInput{Email: "gone@x.com", Password: "pw"})
	require.NoError(t, err)

	deleted, err := env.users.Delete(ctx, admin, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, deleted)

	_, err = env.users.Delete(ctx, admin, u.ID)
	assert.Equal(t, http.StatusNotFound, apperrors.ToDomainError(err).HTTPStatus)

	_, err = env.auth.Login(ctx, "gone@x.com", "pw")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bsc-kit/scorecard-api/internal/api/http/handlers"
	"github.com/bsc-kit/scorecard-api/internal/auth"
	"github.com/bsc-kit/scorecard-api/internal/config"
	"github.com/bsc-kit/scorecard-api/internal/domain"
	"github.com/bsc-kit/scorecard-api/internal/events"
	"github.com/bsc-kit/scorecard-api/internal/observability"
	"github.com/bsc-kit/scorecard-api/internal/repository"
	"github.com/bsc-kit/scorecard-api/internal/service"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, withDenylist bool) *testServer {
	t.Helper()

	logger := zap.NewNop()
	authCfg := config.AuthConfig{
		JWTSecret:   "test-secret-key",
		BcryptCost:  auth.MinBcryptCost,
		Roles:       []string{"ADMIN", "USER"},
		DefaultRole: "USER",
		AdminRole:   "ADMIN",
	}

	tokens, err := auth.NewTokenManager(authCfg.JWTSecret)
	require.NoError(t, err)

	var denylist repository.TokenDenylist
	var revocations auth.RevocationChecker
	if withDenylist {
		denylist = repository.NewMemoryTokenDenylist(nil)
		revocations = denylist
	}

	repo := repository.NewMemoryUserRepository()
	dispatcher := events.NewInMemoryDispatcher(logger)
	authService := service.NewAuthService(authCfg, service.AuthDependencies{
		Users:      repo,
		Tokens:     tokens,
		Denylist:   denylist,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(repo, dispatcher, authService)
	authorizer := auth.NewAuthorizer(tokens, revocations, logger)
	metrics := observability.NewMetrics()

	app := NewServer(ServerConfig{
		Name: "scorecard-api-test",
		Middleware: MiddlewareConfig{
			Logger:     logger,
			Metrics:    metrics,
			CORS:       NewCORSPolicy(config.CORSConfig{AllowedOrigin: testOrigin}),
			Authorizer: authorizer,
		},
		Routes: RouteConfig{
			Health:     handlers.NewHealthHandler("scorecard-api", "test", nil, metrics),
			Auth:       handlers.NewAuthHandler(authService),
			Users:      handlers.NewUsersHandler(userService),
			Authorizer: authorizer,
			AdminRole:  domain.Role(authCfg.AdminRole),
		},
	})

	return &testServer{app: app, tokens: tokens}
}

type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r apiResponse) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) apiResponse {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return apiResponse{status: resp.StatusCode, header: resp.Header, body: raw}
}

func (s *testServer) registerAndLogin(t *testing.T, email, password, role string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": password, "role": role,
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	var login struct {
		Token string `json:"token"`
	}
	resp.decode(t, &login)
	require.NotEmpty(t, login.Token)
	return login.Token
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestEndToEnd_RegisterLoginAndRoleGate(t *testing.T) {
	s := newTestServer(t, false)

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "secret123", "role": "ADMIN",
	})
	require.Equal(t, http.StatusCreated, resp.status)
	assert.JSONEq(t, `{"id":1,"email":"a@x.com"}`, string(resp.body))
	assertCORSHeaders(t, &http.Response{Header: resp.header})

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.status)
	var login struct {
		Token string `json:"token"`
	}
	resp.decode(t, &login)
	adminToken := login.Token

	userToken := s.registerAndLogin(t, "u@x.com", "secret456", "USER")

	update := map[string]string{"nombre": "Ana"}

	resp = s.do(t, http.MethodPut, "/api/users/1", adminToken, update)
	assert.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = s.do(t, http.MethodPut, "/api/users/1", "", update)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assertCORSHeaders(t, &http.Response{Header: resp.header})

	resp = s.do(t, http.MethodPut, "/api/users/1", userToken, update)
	assert.Equal(t, http.StatusForbidden, resp.status)
	var forbidden errorBody
	resp.decode(t, &forbidden)
	assert.Equal(t, "FORBIDDEN", forbidden.Error.Code)
	assertCORSHeaders(t, &http.Response{Header: resp.header})
}

func TestLogin_UniformFailure(t *testing.T) {
	s := newTestServer(t, false)
	s.registerAndLogin(t, "a@x.com", "secret123", "")

	wrongPassword := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	unknownEmail := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret123",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.status)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.status)
	assert.Equal(t, wrongPassword.body, unknownEmail.body)

	var body errorBody
	wrongPassword.decode(t, &body)
	assert.Equal(t, "INVALID_CREDENTIALS", body.Error.Code)
	assert.Equal(t, "invalid credentials", body.Error.Message)
}

func TestRegister_Errors(t *testing.T) {
	s := newTestServer(t, false)

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"nombre": "Ana", "email": "a@x.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.status)
	assert.NotContains(t, string(resp.body), "secret123")
	assert.NotContains(t, string(resp.body), "password")

	resp = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "another",
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	var dup errorBody
	resp.decode(t, &dup)
	assert.Equal(t, "DUPLICATE_EMAIL", dup.Error.Code)

	resp = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "b@x.com"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	var missing errorBody
	resp.decode(t, &missing)
	assert.Equal(t, "VALIDATION_FAILED", missing.Error.Code)

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "b@x.com"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	var missingLogin errorBody
	resp.decode(t, &missingLogin)
	assert.Equal(t, "VALIDATION_FAILED", missingLogin.Error.Code)

	resp = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "c@x.com", "password": "pw", "role": "Gerente",
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	var badRole errorBody
	resp.decode(t, &badRole)
	assert.Equal(t, "VALIDATION_FAILED", badRole.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestUsersEndpoints(t *testing.T) {
	s := newTestServer(t, false)
	adminToken := s.registerAndLogin(t, "admin@x.com", "pw-admin", "ADMIN")
	userToken := s.registerAndLogin(t, "user@x.com", "pw-user", "")

	resp := s.do(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.do(t, http.MethodGet, "/api/users", userToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var list []domain.UserSummary
	resp.decode(t, &list)
	require.Len(t, list, 2)
	assert.NotContains(t, string(resp.body), "$2a$")

	resp = s.do(t, http.MethodGet, "/api/users/abc", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = s.do(t, http.MethodGet, "/api/users/99", userToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = s.do(t, http.MethodGet, "/api/users/2", userToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var one domain.UserSummary
	resp.decode(t, &one)
	assert.Equal(t, "user@x.com", one.Email)
	assert.Equal(t, domain.Role("USER"), one.Role)

	resp = s.do(t, http.MethodPut, "/api/users/2", adminToken, map[string]string{"email": "admin@x.com"})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = s.do(t, http.MethodDelete, "/api/users/2", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.do(t, http.MethodDelete, "/api/users/2", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var deleted struct {
		Message string             `json:"message"`
		User    domain.UserSummary `json:"usuario"`
	}
	resp.decode(t, &deleted)
	assert.Equal(t, int64(2), deleted.User.ID)

	// The deleted user's token is still valid until it expires.
	resp = s.do(t, http.MethodGet, "/api/auth/me", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestMeAndLogout(t *testing.T) {
	t.Run("with revocation", func(t *testing.T) {
		s := newTestServer(t, true)
		token := s.registerAndLogin(t, "a@x.com", "pw", "ADMIN")

		resp := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, resp.status)
		assert.JSONEq(t, `{"user_id":1,"role":"ADMIN"}`, string(resp.body))

		resp = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
		assert.Equal(t, http.StatusNoContent, resp.status)

		resp = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.status)
	})

	t.Run("stateless", func(t *testing.T) {
		s := newTestServer(t, false)
		token := s.registerAndLogin(t, "a@x.com", "pw", "")

		resp := s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
		assert.Equal(t, http.StatusNoContent, resp.status)

		resp = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, resp.status)
	})

	t.Run("logout needs a token", func(t *testing.T) {
		s := newTestServer(t, true)
		resp := s.do(t, http.MethodPost, "/api/auth/logout", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.status)
	})
}

func TestExpiredOrForeignTokenIsUnauthenticated(t *testing.T) {
	s := newTestServer(t, false)
	s.registerAndLogin(t, "a@x.com", "pw", "ADMIN")

	foreign, err := auth.NewTokenManager("someone-elses-secret")
	require.NoError(t, err)
	issued, err := foreign.Issue(domain.Claim{UserID: 1, Role: "ADMIN"})
	require.NoError(t, err)

	resp := s.do(t, http.MethodDelete, "/api/users/1", issued.Value, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	var body errorBody
	resp.decode(t, &body)
	assert.Equal(t, "UNAUTHENTICATED", body.Error.Code)
	assert.NotContains(t, string(resp.body), "signature")
}

func TestPreflightOnProtectedRoute(t *testing.T) {
	s := newTestServer(t, false)

	resp := s.do(t, http.MethodOptions, "/api/users/1", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.status)
	assert.Empty(t, resp.body)
	assertCORSHeaders(t, &http.Response{Header: resp.header})
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, false)

	resp := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = s.do(t, http.MethodGet, "/health/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	var snap observability.MetricsSnapshot
	resp.decode(t, &snap)
	assert.NotEmpty(t, snap.Requests)
}

func TestMetricKeysStayBounded(t *testing.T) {
	s := newTestServer(t, false)
	token := s.registerAndLogin(t, "a@x.com", "pw", "")

	for i := 0; i < 100; i++ {
		resp := s.do(t, http.MethodGet, "/nope/"+strconv.Itoa(i), "", nil)
		require.Equal(t, http.StatusNotFound, resp.status)
		resp = s.do(t, http.MethodGet, "/api/users/"+strconv.Itoa(1000+i), token, nil)
		require.Equal(t, http.StatusNotFound, resp.status)
	}

	resp := s.do(t, http.MethodGet, "/health/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	var snap observability.MetricsSnapshot
	resp.decode(t, &snap)

	assert.Less(t, len(snap.Requests), 10)
	assert.Less(t, len(snap.Errors), 10)
	assert.Equal(t, int64(100), snap.Requests[observability.UnmatchedRoute+"|GET|404"])
	assert.Equal(t, int64(100), snap.Requests["/api/users/:id|GET|404"])
	assert.Equal(t, int64(100), snap.Errors[observability.UnmatchedRoute+"|GET|NOT_FOUND"])
	assert.Equal(t, int64(100), snap.Errors["/api/users/:id|GET|NOT_FOUND"])
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
	"github.com/seedlearn/seed-api/internal/infrastructure/security"
)

// --- stubs ---

type stubAuth struct {
	registerErr error
	registered  []ports.RegisterInput
	loginErr    error
	refreshErr  error
}

func (s *stubAuth) Register(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.registered = append(s.registered, in)
	return &domain.User{ID: 10, Name: in.Name, Email: in.Email, Role: in.Role, CreatedAt: time.Now()}, nil
}

func (s *stubAuth) Authenticate(_ context.Context, _, _ string, _ domain.Role) (*domain.TokenPair, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &domain.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubAuth) AuthenticateAdmin(_ context.Context, _, _ string) (*domain.TokenPair, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &domain.TokenPair{AccessToken: "admin-access", RefreshToken: "admin-refresh"}, nil
}

func (s *stubAuth) RefreshAccessToken(_ context.Context, _ string) (string, error) {
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	return "fresh-access", nil
}

func (s *stubAuth) RevokeRefreshToken(_ context.Context, _ string) error {
	return s.refreshErr
}

type stubDirectory struct {
	users map[int64]*domain.User
}

func (s *stubDirectory) ListUsers(_ context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	var items []*domain.User
	for _, u := range s.users {
		if in.Role == "" || u.Role == in.Role {
			items = append(items, u)
		}
	}
	return &ports.ListUsersResult{Items: items, Total: int64(len(items)), Page: 1, Limit: 20, TotalPages: 1}, nil
}

func (s *stubDirectory) GetUser(_ context.Context, id int64, role domain.Role) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok || (role != "" && u.Role != role) {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubDirectory) DeleteAccount(_ context.Context, id int64, _ string) error {
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// --- fixture ---

type routerFixture struct {
	e      *echo.Echo
	auth   *stubAuth
	tokens *security.TokenIssuer

	student string
	teacher string
	admin   string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	tokens, err := security.NewTokenIssuer(security.TokenConfig{
		Secret:   "router-test-secret",
		Issuer:   "seed-api",
		Audience: "seed-clients",
	})
	require.NoError(t, err)

	auth := &stubAuth{}
	directory := &stubDirectory{users: map[int64]*domain.User{
		1: {ID: 1, Name: "Stu", Email: "stu@example.com", Role: domain.RoleStudent},
		2: {ID: 2, Name: "Tea", Email: "tea@example.com", Role: domain.RoleTeacher},
	}}

	e := NewRouter(RouterConfig{
		Auth:       auth,
		Directory:  directory,
		Tokens:     tokens,
		AdminKey:   "s3cret-key",
		Registerer: prometheus.NewRegistry(),
		Logger:     zerolog.Nop(),
	})

	mint := func(id domain.Identity) string {
		tok, err := tokens.IssueAccessToken(id)
		require.NoError(t, err)
		return tok
	}

	return &routerFixture{
		e:       e,
		auth:    auth,
		tokens:  tokens,
		student: mint(domain.Identity{Kind: domain.KindUser, ID: 1, Role: domain.RoleStudent}),
		teacher: mint(domain.Identity{Kind: domain.KindUser, ID: 2, Role: domain.RoleTeacher}),
		admin:   mint(domain.Identity{Kind: domain.KindAdmin, ID: 1, Role: domain.RoleAdmin}),
	}
}

func (f *routerFixture) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

const validRegistration = `{"name":"Ada","email":"ada@example.com","password":"secret1"}`

// --- tests ---

func TestRouter_RegisterStudent(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, "/api/student/register", "", validRegistration)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.auth.registered, 1)
	assert.Equal(t, domain.RoleStudent, f.auth.registered[0].Role)
}

func TestRouter_RegisterConflictIs409(t *testing.T) {
	f := newRouterFixture(t)
	f.auth.registerErr = domain.ErrUserExists

	rec := f.do(http.MethodPost, "/api/student/register", "", validRegistration)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "user already exists", errorMessage(t, rec))
}

func TestRouter_RegisterValidationIs400(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, "/api/student/register", "", `{"name":"Ada","email":"nope","password":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.auth.registered)
}

func TestRouter_LoginFailureIs401(t *testing.T) {
	f := newRouterFixture(t)
	f.auth.loginErr = domain.ErrInvalidCredentials

	rec := f.do(http.MethodPost, "/api/student/login", "", `{"email":"a@b.c","password":"bad"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", errorMessage(t, rec))
}

func TestRouter_AdminLoginReturnsPair(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, "/api/admin/login", "", `{"email":"admin@email.com","password":"admin"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "admin-access", body["access_token"])
	assert.Equal(t, "admin-refresh", body["refresh_token"])
}

func TestRouter_RefreshRejectedIs401(t *testing.T) {
	f := newRouterFixture(t)
	f.auth.refreshErr = domain.ErrTokenInvalid

	rec := f.do(http.MethodPost, "/api/token/refresh", "", `{"refresh_token":"stale"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_TeacherRegisterGate(t *testing.T) {
	tests := []struct {
		name    string
		token   func(*routerFixture) string
		headers []string
		want    int
	}{
		{name: "anonymous", token: func(*routerFixture) string { return "" }, want: http.StatusUnauthorized},
		{name: "student token", token: func(f *routerFixture) string { return f.student }, want: http.StatusForbidden},
		{name: "admin token", token: func(f *routerFixture) string { return f.admin }, want: http.StatusCreated},
		{name: "admin key", token: func(*routerFixture) string { return "" }, headers: []string{"X-Admin-Key", "s3cret-key"}, want: http.StatusCreated},
		{name: "wrong admin key", token: func(*routerFixture) string { return "" }, headers: []string{"X-Admin-Key", "guess"}, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)

			rec := f.do(http.MethodPost, "/api/teacher/register", tt.token(f), validRegistration, tt.headers...)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusCreated {
				require.Len(t, f.auth.registered, 1)
				assert.Equal(t, domain.RoleTeacher, f.auth.registered[0].Role)
			}
		})
	}
}

func TestRouter_AdminRestriction(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/users/me", f.admin, "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/student/me", f.admin, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/users", f.admin, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/teachers/2", f.admin, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", f.admin, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/metrics", f.admin, "").Code)
}

func TestRouter_AdminRestrictionFailsClosed(t *testing.T) {
	f := newRouterFixture(t)
	f.e.GET("/debug/vars", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/debug/vars", f.admin, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/debug/vars", f.student, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/debug/vars", "", "").Code)
}

func TestRouter_RoleRoutes(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/student/me", f.student, "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/student/me", f.teacher, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/teacher/me", f.teacher, "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/teacher/me", "", "").Code)
}

func TestRouter_InvalidBearerIsUnauthenticated(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/users", "garbage", "").Code)
	// Open routes ignore a bad bearer.
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/student/register", "garbage", validRegistration).Code)
}

func TestRouter_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	f := newRouterFixture(t)
	refresh, _, err := f.tokens.IssueRefreshToken(domain.Identity{Kind: domain.KindUser, ID: 1, Role: domain.RoleStudent})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/users/me", refresh, "").Code)
}

func TestRouter_NotFound(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/users/99", f.student, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", errorMessage(t, rec))
}

func TestRouter_DeleteMe(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodDelete, "/api/users/me", f.student, `{"password":"secret1"}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/users/me", f.student, "").Code)
}

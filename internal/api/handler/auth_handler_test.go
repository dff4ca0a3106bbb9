package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn     func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	authenticateFn func(ctx context.Context, email, password string, role domain.Role) (*domain.TokenPair, error)
	adminFn        func(ctx context.Context, email, password string) (*domain.TokenPair, error)
	refreshFn      func(ctx context.Context, token string) (string, error)
	revokeFn       func(ctx context.Context, token string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string, role domain.Role) (*domain.TokenPair, error) {
	return s.authenticateFn(ctx, email, password, role)
}

func (s *stubAuthService) AuthenticateAdmin(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	return s.adminFn(ctx, email, password)
}

func (s *stubAuthService) RefreshAccessToken(ctx context.Context, token string) (string, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) RevokeRefreshToken(ctx context.Context, token string) error {
	return s.revokeFn(ctx, token)
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError with %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func TestAuthHandler_RegisterStudent_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Name != "Alice" || in.Email != "a@x.com" || in.Role != domain.RoleStudent {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: 1, Name: in.Name, Email: in.Email, Role: in.Role, CreatedAt: time.Now()}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/student/register", `{"name":"Alice","email":"a@x.com","password":"pw123456"}`)
	if err := handler.RegisterStudent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "a@x.com" || resp["role"] != "student" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}
}

func TestAuthHandler_RegisterTeacher_PassesRole(t *testing.T) {
	var got domain.Role
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			got = in.Role
			return &domain.User{ID: 2, Role: in.Role}, nil
		},
	}

	c, _ := newJSONContext(http.MethodPost, "/api/teacher/register", `{"name":"Tom","email":"t@x.com","password":"secret1"}`)
	if err := NewAuthHandler(stub).RegisterTeacher(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != domain.RoleTeacher {
		t.Fatalf("expected teacher role, got %q", got)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}

	c, _ := newJSONContext(http.MethodPost, "/api/student/register", `{"name":"Bob","email":"b@x.com","password":"secret1"}`)
	err := NewAuthHandler(stub).RegisterStudent(c)
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}

	bodies := []string{
		`{"email":"b@x.com","password":"secret1"}`,
		`{"name":"Bob","email":"not-an-email","password":"secret1"}`,
		`{"name":"Bob","email":"b@x.com","password":"123"}`,
		`{"name":`,
	}
	for _, body := range bodies {
		c, _ := newJSONContext(http.MethodPost, "/api/student/register", body)
		assertHTTPError(t, NewAuthHandler(stub).RegisterStudent(c), http.StatusBadRequest)
	}
}

func TestAuthHandler_Login_RoutesByRole(t *testing.T) {
	pair := &domain.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	var gotRole domain.Role
	adminCalled := false
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, email, password string, role domain.Role) (*domain.TokenPair, error) {
			gotRole = role
			return pair, nil
		},
		adminFn: func(ctx context.Context, email, password string) (*domain.TokenPair, error) {
			adminCalled = true
			return pair, nil
		},
	}
	handler := NewAuthHandler(stub)
	body := `{"email":"a@x.com","password":"pw123456"}`

	c, rec := newJSONContext(http.MethodPost, "/api/teacher/login", body)
	if err := handler.LoginTeacher(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotRole != domain.RoleTeacher {
		t.Fatalf("expected teacher login, got %q", gotRole)
	}

	var resp tokenPairResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "access" || resp.RefreshToken != "refresh" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	c, _ = newJSONContext(http.MethodPost, "/api/admin/login", body)
	if err := handler.LoginAdmin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !adminCalled {
		t.Fatalf("admin login must use the admin identity space")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, email, password string, role domain.Role) (*domain.TokenPair, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}

	c, rec := newJSONContext(http.MethodPost, "/api/student/login", `{"email":"a@x.com","password":"nope"}`)
	err := NewAuthHandler(stub).LoginStudent(c)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("no tokens may be written on failure")
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(ctx context.Context, token string) (string, error) {
			if token != "refresh" {
				return "", domain.ErrTokenInvalid
			}
			return "new-access", nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/token/refresh", `{"refresh_token":"refresh"}`)
	if err := handler.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp accessTokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "new-access" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	c, _ = newJSONContext(http.MethodPost, "/api/token/refresh", `{"refresh_token":"other"}`)
	if err := handler.Refresh(c); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	c, _ = newJSONContext(http.MethodPost, "/api/token/refresh", `{}`)
	assertHTTPError(t, handler.Refresh(c), http.StatusBadRequest)
}

func TestAuthHandler_Logout(t *testing.T) {
	revoked := ""
	stub := &stubAuthService{
		revokeFn: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}

	c, rec := newJSONContext(http.MethodPost, "/api/logout", `{"refresh_token":"refresh"}`)
	if err := NewAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || revoked != "refresh" {
		t.Fatalf("expected 200 and revoked token, got %d %q", rec.Code, revoked)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// stubVerifier accepts only the tokens it knows.
type stubVerifier map[string]*domain.TokenClaims

func (v stubVerifier) ParseAccessToken(token string) (*domain.TokenClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, domain.ErrTokenInvalid
}

var verifier = stubVerifier{
	"student-token": {UserID: 1, HasUserID: true, Type: domain.TokenTypeAccess, Role: domain.RoleStudent},
	"teacher-token": {UserID: 2, HasUserID: true, Type: domain.TokenTypeAccess, Role: domain.RoleTeacher},
	"admin-token":   {Type: domain.TokenTypeAccess, Role: domain.RoleAdmin},
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// newPolicyServer wires the global middleware and one route per policy the
// tests exercise.
func newPolicyServer(adminKey string) *echo.Echo {
	e := echo.New()
	registry := NewRegistry(adminKey)
	e.Use(Auth(verifier), AdminRestriction(registry))

	api := e.Group("/api")
	registry.Handle(api, http.MethodGet, "/open", ok, Policy{})
	registry.Handle(api, http.MethodGet, "/me", ok, Policy{Authenticated: true})
	registry.Handle(api, http.MethodGet, "/teacher/me", ok, Policy{Role: domain.RoleTeacher})
	registry.Handle(api, http.MethodGet, "/teachers/:id", ok, Policy{Role: domain.RoleTeacher, AllowAdmin: true})
	registry.Handle(api, http.MethodGet, "/users", ok, Policy{Authenticated: true, AllowAdmin: true})
	registry.Handle(api, http.MethodPost, "/teacher/register", ok, Policy{OnlyAdmin: true})
	registry.Handle(e, http.MethodGet, "/ready", ok, Policy{AllowAdmin: true})
	e.GET("/health", ok)
	return e
}

func do(e *echo.Echo, method, path, token string, headers ...string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

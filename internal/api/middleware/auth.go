package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

const claimsKey = "auth.claims"

// AccessTokenVerifier verifies an access token and returns its claims.
type AccessTokenVerifier interface {
	ParseAccessToken(token string) (*domain.TokenClaims, error)
}

// BearerToken returns the last whitespace-separated segment of an
// Authorization header value, or "" when the header is blank.
func BearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Auth verifies the bearer token, when one is present, and injects its
// claims into the context. It never rejects: a missing or invalid token
// leaves the request unauthenticated for RequireAuth to decide.
func Auth(verifier AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return next(c)
			}
			if claims, err := verifier.ParseAccessToken(token); err == nil {
				c.Set(claimsKey, claims)
			}
			return next(c)
		}
	}
}

// RequireAuth rejects requests that carry no verified access token.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := Claims(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

// Claims returns the verified claims injected by Auth.
func Claims(c echo.Context) (*domain.TokenClaims, bool) {
	claims, ok := c.Get(claimsKey).(*domain.TokenClaims)
	return claims, ok && claims != nil
}

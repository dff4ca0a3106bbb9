package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seedlearn/seed-api/internal/api/middleware"
	"github.com/seedlearn/seed-api/internal/core/domain"
)

// ctxClaims returns the verified claims injected by the Auth middleware.
// Route policy normally guarantees their presence; the check keeps handlers
// safe when mounted without it.
func ctxClaims(c echo.Context) (*domain.TokenClaims, error) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// ctxUserID returns the user_id claim. Admin tokens carry none and are
// rejected with 401.
func ctxUserID(c echo.Context) (int64, error) {
	claims, err := ctxClaims(c)
	if err != nil {
		return 0, err
	}
	if !claims.HasUserID {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}
	return claims.UserID, nil
}

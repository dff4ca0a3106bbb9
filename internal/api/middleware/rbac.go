package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// RBAC enforces the role a route requires. Admin callers also pass when
// allowAdmin is set. A caller with no verified token gets 401, a caller
// holding another role gets 403.
func RBAC(role domain.Role, allowAdmin bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Claims(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if claims.Role == role || (allowAdmin && claims.IsAdmin()) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderAdminKey carries the shared bootstrap key accepted on admin-only routes.
const HeaderAdminKey = "X-Admin-Key"

// AdminRestriction confines admin callers to routes whose policy opts in
// with AllowAdmin or OnlyAdmin. It runs for every routed request and fails
// closed: an admin on a route the registry does not know is rejected.
// Non-admin callers pass through.
func AdminRestriction(registry *Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Claims(c)
			if !ok || !claims.IsAdmin() {
				return next(c)
			}
			policy, found := registry.Lookup(c.Request().Method, c.Path())
			if !found || !policy.AdminAllowed() {
				return echo.NewHTTPError(http.StatusForbidden, "route not available to administrators")
			}
			return next(c)
		}
	}
}

// OnlyAdmin admits callers holding an admin access token, or presenting
// adminKey in the X-Admin-Key header. An empty adminKey disables the
// header path.
func OnlyAdmin(adminKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, authenticated := Claims(c)
			if authenticated && claims.IsAdmin() {
				return next(c)
			}
			if adminKey != "" && validAdminKey(c.Request().Header.Get(HeaderAdminKey), adminKey) {
				return next(c)
			}
			if authenticated {
				return echo.NewHTTPError(http.StatusForbidden, "administrator access required")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
	}
}

func validAdminKey(presented, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}

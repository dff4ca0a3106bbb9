package middleware

import (
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// Policy tags a route with its access requirements.
type Policy struct {
	// Authenticated requires a verified access token.
	Authenticated bool
	// Role, when set, requires that role claim. Implies Authenticated.
	Role domain.Role
	// AllowAdmin admits admin callers in addition to Role.
	AllowAdmin bool
	// OnlyAdmin makes the route admin-exclusive.
	OnlyAdmin bool
}

// AdminAllowed reports whether admin callers may reach the route at all.
func (p Policy) AdminAllowed() bool {
	return p.AllowAdmin || p.OnlyAdmin
}

// chain turns the policy into the per-route middleware it implies.
func (p Policy) chain(adminKey string) []echo.MiddlewareFunc {
	switch {
	case p.OnlyAdmin:
		return []echo.MiddlewareFunc{OnlyAdmin(adminKey)}
	case p.Role != "":
		return []echo.MiddlewareFunc{RBAC(p.Role, p.AllowAdmin)}
	case p.Authenticated:
		return []echo.MiddlewareFunc{RequireAuth()}
	}
	return nil
}

// Registry records the policy of every route registered through it, keyed
// by method and route path, for the global admin restriction to consult.
type Registry struct {
	mu       sync.RWMutex
	adminKey string
	policies map[string]Policy
}

// NewRegistry returns an empty registry. adminKey is the X-Admin-Key value
// accepted on OnlyAdmin routes; empty disables it.
func NewRegistry(adminKey string) *Registry {
	return &Registry{adminKey: adminKey, policies: make(map[string]Policy)}
}

// Route is the subset of *echo.Echo and *echo.Group used to add routes.
type Route interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
}

// Handle adds a route guarded by policy and records the policy under the
// route's full path.
func (r *Registry) Handle(router Route, method, path string, h echo.HandlerFunc, p Policy) *echo.Route {
	route := router.Add(method, path, h, p.chain(r.adminKey)...)

	r.mu.Lock()
	r.policies[key(route.Method, route.Path)] = p
	r.mu.Unlock()
	return route
}

// Lookup returns the policy recorded for a method and route path.
func (r *Registry) Lookup(method, path string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[key(method, path)]
	return p, ok
}

func key(method, path string) string {
	return method + " " + path
}

package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/seedlearn/seed-api/docs"
	"github.com/seedlearn/seed-api/internal/api/handler"
	"github.com/seedlearn/seed-api/internal/api/middleware"
	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
	"github.com/seedlearn/seed-api/internal/infrastructure/http/handlers"
)

// RouterConfig carries everything the HTTP layer depends on.
type RouterConfig struct {
	Auth      ports.AuthService
	Directory ports.DirectoryService
	Tokens    middleware.AccessTokenVerifier

	// AdminKey enables the X-Admin-Key header on admin-only routes when set.
	AdminKey    string
	CORSOrigins []string

	Mongo handlers.MongoPinger
	Redis handlers.RedisPinger

	// Registerer receives the HTTP request metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	Logger     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderAdminKey},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "seed",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))

	// Authorization runs for every routed request: the bearer is verified
	// first, then admins are confined to routes that opt in.
	policies := middleware.NewRegistry(cfg.AdminKey)
	e.Use(middleware.Auth(cfg.Tokens))
	e.Use(middleware.AdminRestriction(policies))

	api := e.Group("/api")

	// --- Auth routes ---
	auth := handler.NewAuthHandler(cfg.Auth)
	policies.Handle(api, http.MethodPost, "/student/register", auth.RegisterStudent, middleware.Policy{})
	policies.Handle(api, http.MethodPost, "/teacher/register", auth.RegisterTeacher, middleware.Policy{OnlyAdmin: true})
	policies.Handle(api, http.MethodPost, "/student/login", auth.LoginStudent, middleware.Policy{})
	policies.Handle(api, http.MethodPost, "/teacher/login", auth.LoginTeacher, middleware.Policy{})
	policies.Handle(api, http.MethodPost, "/admin/login", auth.LoginAdmin, middleware.Policy{AllowAdmin: true})
	policies.Handle(api, http.MethodPost, "/token/refresh", auth.Refresh, middleware.Policy{AllowAdmin: true})
	policies.Handle(api, http.MethodPost, "/logout", auth.Logout, middleware.Policy{AllowAdmin: true})

	// --- Directory routes ---
	users := handler.NewUserHandler(cfg.Directory)
	directory := middleware.Policy{Authenticated: true, AllowAdmin: true}
	self := middleware.Policy{Authenticated: true}

	policies.Handle(api, http.MethodGet, "/users", users.List(""), directory)
	policies.Handle(api, http.MethodGet, "/users/me", users.Me, self)
	policies.Handle(api, http.MethodDelete, "/users/me", users.DeleteMe, self)
	policies.Handle(api, http.MethodGet, "/users/:id", users.Get(""), directory)
	policies.Handle(api, http.MethodGet, "/students", users.List(domain.RoleStudent), directory)
	policies.Handle(api, http.MethodGet, "/students/:id", users.Get(domain.RoleStudent), directory)
	policies.Handle(api, http.MethodGet, "/teachers", users.List(domain.RoleTeacher), directory)
	policies.Handle(api, http.MethodGet, "/teachers/:id", users.Get(domain.RoleTeacher), directory)
	policies.Handle(api, http.MethodGet, "/student/me", users.Me, middleware.Policy{Role: domain.RoleStudent})
	policies.Handle(api, http.MethodGet, "/teacher/me", users.Me, middleware.Policy{Role: domain.RoleTeacher})

	// --- Ops routes ---
	// Open to everyone, admins included. They still go through the registry
	// because the admin restriction rejects unregistered routes.
	ops := middleware.Policy{AllowAdmin: true}
	policies.Handle(e, http.MethodGet, "/health", handlers.NewHealthHandler("seed-api").Liveness, ops)
	if cfg.Mongo != nil && cfg.Redis != nil {
		policies.Handle(e, http.MethodGet, "/health/ready", handlers.NewHealthDependenciesHandler(cfg.Mongo, cfg.Redis).Readiness, ops)
	}
	policies.Handle(e, http.MethodGet, "/metrics", echoprometheus.NewHandler(), ops)
	policies.Handle(e, http.MethodGet, "/swagger/*", echoSwagger.WrapHandler, ops)

	return e
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

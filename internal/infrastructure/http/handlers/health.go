package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct {
	service string
	started time.Time
}

func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service, started: time.Now()}
}

type livenessResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{
		Status:  "ok",
		Service: h.service,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

// MongoPinger is satisfied by *mongo.Client.
type MongoPinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// RedisPinger is satisfied by *redis.Client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthDependenciesHandler handles GET /health/ready, the readiness probe.
// The credential store and the registration lock must both answer.
type HealthDependenciesHandler struct {
	mongo MongoPinger
	redis RedisPinger
}

func NewHealthDependenciesHandler(mongo MongoPinger, rdb RedisPinger) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		mongo: mongo,
		redis: rdb,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := map[string]dependencyStatus{
		"mongodb": check(h.mongo.Ping(ctx, readpref.Primary())),
		"redis":   check(h.redis.Ping(ctx).Err()),
	}

	status, httpStatus := "ok", http.StatusOK
	for _, d := range deps {
		if d.Status != "ok" {
			status, httpStatus = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}

func check(err error) dependencyStatus {
	if err != nil {
		return dependencyStatus{Status: "unhealthy", Error: err.Error()}
	}
	return dependencyStatus{Status: "ok"}
}

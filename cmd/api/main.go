package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seedlearn/seed-api/internal/api"
	"github.com/seedlearn/seed-api/internal/core/service"
	"github.com/seedlearn/seed-api/internal/infrastructure/config"
	mongodb "github.com/seedlearn/seed-api/internal/infrastructure/db/mongo"
	redisdb "github.com/seedlearn/seed-api/internal/infrastructure/db/redis"
	"github.com/seedlearn/seed-api/internal/infrastructure/queue"
	"github.com/seedlearn/seed-api/internal/infrastructure/security"
	"github.com/seedlearn/seed-api/internal/infrastructure/seed"
	"github.com/seedlearn/seed-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       Seed API
// @version                     1.0
// @description                 Authentication and authorization backend for the Seed learning platform.
// @BasePath                    /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
//
// @securityDefinitions.apikey  AdminKey
// @in                          header
// @name                        X-Admin-Key
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet; fall back to the defaults.
		l := logger.New(logger.Options{Service: "seed-api"})
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "seed-api",
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	users := mongodb.NewUserRepository(db)
	admins := mongodb.NewAdminRepository(db)

	// --- Security ---
	hasher, err := security.NewPasswordHasher(cfg.PasswordHash)
	if err != nil {
		log.Fatal().Err(err).Msg("password hasher")
	}
	tokens, err := security.NewTokenIssuer(security.TokenConfig{
		Secret:          cfg.JWT.Secret,
		Issuer:          cfg.JWT.Issuer,
		Audience:        cfg.JWT.Audience,
		AccessTTL:       cfg.JWT.AccessTTL,
		RefreshTTL:      cfg.JWT.RefreshTTL,
		AdminRefreshTTL: cfg.JWT.AdminRefreshTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer")
	}

	// --- Audit trail ---
	auditService := service.NewAuditService(mongodb.NewAuditRepository(db), log)
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditService, log)
	dispatcher.Start(context.Background())

	// --- Services ---
	authService := service.NewAuthService(users, admins, hasher, tokens, log,
		service.WithRegistrationGuard(redisdb.NewRegistrationGuard(rdb, cfg.RegisterLockTTL)),
		service.WithAuditSink(dispatcher),
	)
	directoryService := service.NewDirectoryService(users, hasher, dispatcher, log)

	if err := seed.NewAdminSeeder(admins, hasher, cfg.Admin.Email, cfg.Admin.Password, log).Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("admin seeding failed")
	}

	e := api.NewRouter(api.RouterConfig{
		Auth:        authService,
		Directory:   directoryService,
		Tokens:      tokens,
		AdminKey:    cfg.Admin.Key,
		CORSOrigins: cfg.CORSOrigins,
		Mongo:       mongoClient,
		Redis:       rdb,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("seed-api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit dispatcher shutdown")
	}
}

package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

type Config struct {
	Port        string   `env:"PORT,         default=8080"`
	Env         string   `env:"ENV,          default=development"`
	LogLevel    string   `env:"LOG_LEVEL,    default=info"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`

	// PasswordHash selects the algorithm for new digests: bcrypt, argon2id or sha256.
	PasswordHash    string        `env:"PASSWORD_HASH,     default=bcrypt"`
	RegisterLockTTL time.Duration `env:"REGISTER_LOCK_TTL, default=10s"`
	AuditWorkers    int           `env:"AUDIT_WORKERS,     default=4"`

	JWT   JWTConfig
	Admin AdminConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type JWTConfig struct {
	Secret          string        `env:"JWT_SECRET"`
	Issuer          string        `env:"JWT_ISSUER"`
	Audience        string        `env:"JWT_AUDIENCE"`
	AccessTTL       time.Duration `env:"JWT_ACCESS_TTL,        default=1h"`
	RefreshTTL      time.Duration `env:"JWT_REFRESH_TTL,       default=168h"`
	AdminRefreshTTL time.Duration `env:"JWT_ADMIN_REFRESH_TTL, default=24h"`
}

type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL,    default=admin@email.com"`
	Password string `env:"ADMIN_PASSWORD, default=admin"`
	// Key enables the X-Admin-Key header on admin-only routes when set.
	Key string `env:"ADMIN_KEY"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=seed_api"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
// Missing signing settings are reported as domain.ErrMissingSigningKey; the
// process must not start with them.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every blank signing setting at once.
func (c *Config) Validate() error {
	var missing []string
	for _, setting := range []struct{ name, value string }{
		{"JWT_SECRET", c.JWT.Secret},
		{"JWT_ISSUER", c.JWT.Issuer},
		{"JWT_AUDIENCE", c.JWT.Audience},
	} {
		if strings.TrimSpace(setting.value) == "" {
			missing = append(missing, setting.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s must be set", domain.ErrMissingSigningKey, strings.Join(missing, ", "))
	}
	if c.AuditWorkers < 0 {
		return errors.New("AUDIT_WORKERS must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

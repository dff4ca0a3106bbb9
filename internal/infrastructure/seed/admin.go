package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

const (
	DefaultAdminEmail    = "admin@email.com"
	DefaultAdminPassword = "admin"
)

// AdminSeeder makes sure exactly the configured administrator can log in.
type AdminSeeder struct {
	admins   ports.AdminRepository
	hasher   ports.PasswordHasher
	email    string
	password string
	log      zerolog.Logger
	now      func() time.Time
}

// NewAdminSeeder falls back to the default credentials for blank values.
func NewAdminSeeder(admins ports.AdminRepository, hasher ports.PasswordHasher, email, password string, log zerolog.Logger) *AdminSeeder {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = DefaultAdminEmail
	}
	if password == "" {
		password = DefaultAdminPassword
	}
	return &AdminSeeder{
		admins:   admins,
		hasher:   hasher,
		email:    email,
		password: password,
		log:      log,
		now:      time.Now,
	}
}

// Seed overwrites the credentials of the existing admin, soft-deleted or
// not, or creates one when the collection is empty.
func (s *AdminSeeder) Seed(ctx context.Context) error {
	hash, err := s.hasher.Hash(s.password)
	if err != nil {
		return fmt.Errorf("seed admin: hash password: %w", err)
	}
	now := s.now().UTC()

	existing, err := s.admins.FindAny(ctx)
	switch {
	case err == nil:
		existing.Email = s.email
		existing.PasswordHash = hash
		existing.UpdatedAt = now
		if err := s.admins.Update(ctx, existing); err != nil {
			return fmt.Errorf("seed admin: update: %w", err)
		}
		s.log.Info().Int64("principal_id", existing.ID).Str("email", s.email).Msg("admin credentials refreshed")
		return nil
	case errors.Is(err, domain.ErrUserNotFound):
		created, err := s.admins.Create(ctx, &domain.Admin{
			Email:        s.email,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("seed admin: create: %w", err)
		}
		s.log.Info().Int64("principal_id", created.ID).Str("email", s.email).Msg("admin created")
		return nil
	default:
		return fmt.Errorf("seed admin: %w", err)
	}
}

package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// DirectoryService reads accounts and handles self-service deletion.
type DirectoryService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	audit  ports.AuditSink
	logger zerolog.Logger
	now    func() time.Time
}

func NewDirectoryService(users ports.UserRepository, hasher ports.PasswordHasher, audit ports.AuditSink, logger zerolog.Logger) *DirectoryService {
	return &DirectoryService{users: users, hasher: hasher, audit: audit, logger: logger, now: time.Now}
}

var _ ports.DirectoryService = (*DirectoryService)(nil)

// ListUsers returns one page of active users, optionally filtered by role.
func (s *DirectoryService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	if in.Role != "" && !in.Role.Valid() {
		return nil, domain.ErrInvalidInput
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return nil, fmt.Errorf("%w: page out of range", domain.ErrInvalidInput)
	}

	users, total, err := s.users.List(ctx, ports.ListUsersFilter{Role: in.Role, Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// GetUser returns an active user. When role is set, a user holding another
// role is reported as not found.
func (s *DirectoryService) GetUser(ctx context.Context, id int64, role domain.Role) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != "" && user.Role != role {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// DeleteAccount soft-deletes the caller's account after confirming the
// password, and drops its refresh token so the session cannot be refreshed.
func (s *DirectoryService) DeleteAccount(ctx context.Context, id int64, password string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if user.RefreshToken != nil {
		user.RefreshToken = nil
		user.UpdatedAt = now
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("delete account: detach refresh token: %w", err)
		}
	}
	if err := s.users.SoftDelete(ctx, id, now); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.logger.Info().Int64("principal_id", id).Msg("account deleted")
	if s.audit != nil {
		s.audit.Enqueue(domain.AuthEvent{
			Type:        domain.EventAccountDeleted,
			Kind:        domain.KindUser,
			PrincipalID: id,
			Email:       user.Email,
			Role:        user.Role,
			Timestamp:   now,
		})
	}
	return nil
}

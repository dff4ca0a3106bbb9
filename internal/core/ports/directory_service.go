package ports

import (
	"context"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// ListUsersInput carries all parameters for the list endpoints.
type ListUsersInput struct {
	Role  domain.Role
	Page  int
	Limit int
}

// ListUsersResult is returned by ListUsers.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// DirectoryService exposes read access to accounts and self-service deletion.
type DirectoryService interface {
	ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)
	// GetUser returns an active user; a non-empty role also requires a matching role.
	GetUser(ctx context.Context, id int64, role domain.Role) (*domain.User, error)
	DeleteAccount(ctx context.Context, id int64, password string) error
}

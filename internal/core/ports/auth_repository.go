package ports

import (
	"context"
	"time"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// ListUsersFilter carries the query parameters for listing users.
type ListUsersFilter struct {
	Role  domain.Role // empty = every role
	Page  int         // 1-based
	Limit int         // capped at 100 by the service
}

// Offset is the number of rows before the page, computed in int64.
func (f ListUsersFilter) Offset() int64 {
	return int64(f.Page-1) * int64(f.Limit)
}

// UserRepository persists student and teacher accounts.
type UserRepository interface {
	// ExistsByEmail ignores soft deletion: a deleted account still occupies its email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// FindByEmailAndRole only returns active users.
	FindByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error)
	// FindByRefreshToken looks a user up by the digest of its stored refresh token.
	FindByRefreshToken(ctx context.Context, digest string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update persists the mutable fields, including the refresh token (nil detaches it).
	Update(ctx context.Context, user *domain.User) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}

// AdminRepository persists administrator accounts.
type AdminRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*domain.Admin, error)
	FindByRefreshToken(ctx context.Context, digest string) (*domain.Admin, error)
	// FindAny returns the first admin, soft-deleted ones included.
	FindAny(ctx context.Context) (*domain.Admin, error)
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	Update(ctx context.Context, admin *domain.Admin) error
}

// RegistrationGuard serialises concurrent registrations of the same email.
type RegistrationGuard interface {
	// Acquire returns the lock token when the lock was taken, and false
	// when another registration of email holds it.
	Acquire(ctx context.Context, email string) (token string, ok bool, err error)
	// Release drops the lock only if it still carries token.
	Release(ctx context.Context, email, token string) error
}

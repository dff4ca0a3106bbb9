package ports

import (
	"context"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService is the session state machine: register, login, refresh, logout.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string, role domain.Role) (*domain.TokenPair, error)
	AuthenticateAdmin(ctx context.Context, email, password string) (*domain.TokenPair, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

package ports

import (
	"time"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// PasswordHasher produces and checks storage-opaque password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer mints and verifies signed bearer tokens.
type TokenIssuer interface {
	IssueAccessToken(id domain.Identity) (string, error)
	IssueRefreshToken(id domain.Identity) (string, time.Time, error)
	ParseAccessToken(token string) (*domain.TokenClaims, error)
	ParseRefreshToken(token string) (*domain.TokenClaims, error)
}

package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"
)

// Role is the authorization role carried in access tokens.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a role a User can hold. Admin is not a user role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// PrincipalKind separates the user and admin identity spaces.
type PrincipalKind string

const (
	KindUser  PrincipalKind = "user"
	KindAdmin PrincipalKind = "admin"
)

// RefreshToken is the single live refresh credential of a principal.
// Only the digest of the signed token is kept.
type RefreshToken struct {
	Digest    string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewRefreshToken wraps a freshly signed refresh token for storage.
func NewRefreshToken(token string, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{Digest: DigestRefreshToken(token), ExpiresAt: expiresAt.UTC()}
}

// DigestRefreshToken returns the lookup key stored for a refresh token.
func DigestRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Expired is strict: a token expiring exactly at now is already expired.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Identity is what the token issuer needs to know about a principal.
type Identity struct {
	Kind PrincipalKind
	ID   int64
	Role Role
}

// Subject returns the user_id claim value; admins carry none.
func (i Identity) Subject() string {
	if i.Kind == KindAdmin {
		return ""
	}
	return strconv.FormatInt(i.ID, 10)
}

// User is a student or teacher account.
type User struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Biography    string        `json:"biography,omitempty"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	RefreshToken *RefreshToken `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
}

func (u *User) Identity() Identity {
	return Identity{Kind: KindUser, ID: u.ID, Role: u.Role}
}

// Admin lives in its own identity space; its role is implicitly admin.
type Admin struct {
	ID           int64         `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	RefreshToken *RefreshToken `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
}

func (a *Admin) Identity() Identity {
	return Identity{Kind: KindAdmin, ID: a.ID, Role: RoleAdmin}
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "AccessToken"
	TokenTypeRefresh TokenType = "RefreshToken"
)

// TokenClaims are the verified claims of a bearer token.
type TokenClaims struct {
	UserID    int64
	HasUserID bool
	Type      TokenType
	Role      Role
	ID        string
	ExpiresAt time.Time
}

// IsAdmin reports whether the claims carry the admin role.
func (c *TokenClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

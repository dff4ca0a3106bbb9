package security

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

const (
	defaultAccessTTL       = time.Hour
	defaultRefreshTTL      = 7 * 24 * time.Hour
	defaultAdminRefreshTTL = 24 * time.Hour
)

// Claims is the JWT payload of both token kinds. Tokens are signed, not
// encrypted: every claim is readable by whoever holds the token.
type Claims struct {
	UserID    string `json:"user_id,omitempty"`
	TokenType string `json:"token_type"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig holds the signing settings loaded once at startup.
type TokenConfig struct {
	Secret          string
	Issuer          string
	Audience        string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	AdminRefreshTTL time.Duration
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
type TokenIssuer struct {
	key             []byte
	issuer          string
	audience        string
	accessTTL       time.Duration
	refreshTTL      time.Duration
	adminRefreshTTL time.Duration
	now             func() time.Time
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)

// NewTokenIssuer fails with domain.ErrMissingSigningKey when the secret,
// issuer or audience is blank; the process must not start in that case.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("%w: secret", domain.ErrMissingSigningKey)
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("%w: issuer", domain.ErrMissingSigningKey)
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, fmt.Errorf("%w: audience", domain.ErrMissingSigningKey)
	}

	t := &TokenIssuer{
		key:             []byte(cfg.Secret),
		issuer:          cfg.Issuer,
		audience:        cfg.Audience,
		accessTTL:       cfg.AccessTTL,
		refreshTTL:      cfg.RefreshTTL,
		adminRefreshTTL: cfg.AdminRefreshTTL,
		now:             time.Now,
	}
	if t.accessTTL <= 0 {
		t.accessTTL = defaultAccessTTL
	}
	if t.refreshTTL <= 0 {
		t.refreshTTL = defaultRefreshTTL
	}
	if t.adminRefreshTTL <= 0 {
		t.adminRefreshTTL = defaultAdminRefreshTTL
	}
	return t, nil
}

// WithClock replaces the time source, for tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// IssueAccessToken mints a short-lived token carrying identity and role.
func (t *TokenIssuer) IssueAccessToken(id domain.Identity) (string, error) {
	claims := Claims{
		UserID:           id.Subject(),
		TokenType:        string(domain.TokenTypeAccess),
		Role:             string(id.Role),
		RegisteredClaims: t.registered(id, t.accessTTL),
	}
	return t.sign(claims)
}

// IssueRefreshToken mints a refresh token; admins get the shorter lifetime.
func (t *TokenIssuer) IssueRefreshToken(id domain.Identity) (string, time.Time, error) {
	ttl := t.refreshTTL
	if id.Kind == domain.KindAdmin {
		ttl = t.adminRefreshTTL
	}
	rc := t.registered(id, ttl)
	signed, err := t.sign(Claims{
		UserID:           id.Subject(),
		TokenType:        string(domain.TokenTypeRefresh),
		RegisteredClaims: rc,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, rc.ExpiresAt.Time, nil
}

func (t *TokenIssuer) ParseAccessToken(token string) (*domain.TokenClaims, error) {
	return t.parse(token, domain.TokenTypeAccess)
}

func (t *TokenIssuer) ParseRefreshToken(token string) (*domain.TokenClaims, error) {
	return t.parse(token, domain.TokenTypeRefresh)
}

func (t *TokenIssuer) registered(id domain.Identity, ttl time.Duration) jwt.RegisteredClaims {
	now := t.now().UTC()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   id.Subject(),
		Issuer:    t.issuer,
		Audience:  jwt.ClaimStrings{t.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *TokenIssuer) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parse verifies signature, algorithm, issuer, audience, expiry and token kind.
func (t *TokenIssuer) parse(token string, want domain.TokenType) (*domain.TokenClaims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if domain.TokenType(claims.TokenType) != want {
		return nil, fmt.Errorf("%w: expected %s, got %q", domain.ErrTokenInvalid, want, claims.TokenType)
	}

	out := &domain.TokenClaims{
		Type: want,
		Role: domain.Role(claims.Role),
		ID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.UserID != "" {
		id, err := strconv.ParseInt(claims.UserID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed user_id", domain.ErrTokenInvalid)
		}
		out.UserID, out.HasUserID = id, true
	}
	return out, nil
}

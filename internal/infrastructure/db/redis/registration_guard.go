package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/seedlearn/seed-api/internal/core/ports"
)

const defaultLockTTL = 10 * time.Second

// releaseScript deletes the lock only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// lockClient is the subset of the Redis client the guard needs.
type lockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RegistrationGuard holds a short-lived lock per email while an account is
// being created, so two concurrent registrations cannot both pass the
// existence check. Each lock stores a random token and Release removes the
// key only while the token still matches, so a lock that expired and was
// taken by another request is left alone.
// Key format: register:<email>
type RegistrationGuard struct {
	client lockClient
	ttl    time.Duration
	token  func() string
}

// NewRegistrationGuard wraps the given Redis client. A non-positive ttl
// falls back to ten seconds.
func NewRegistrationGuard(client lockClient, ttl time.Duration) *RegistrationGuard {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RegistrationGuard{client: client, ttl: ttl, token: uuid.NewString}
}

var _ ports.RegistrationGuard = (*RegistrationGuard)(nil)

// Acquire reports false when another registration for email is in flight.
func (g *RegistrationGuard) Acquire(ctx context.Context, email string) (string, bool, error) {
	token := g.token()
	ok, err := g.client.SetNX(ctx, g.key(email), token, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("registration lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *RegistrationGuard) Release(ctx context.Context, email, token string) error {
	if err := g.client.Eval(ctx, releaseScript, []string{g.key(email)}, token).Err(); err != nil {
		return fmt.Errorf("registration unlock: %w", err)
	}
	return nil
}

func (g *RegistrationGuard) key(email string) string {
	return "register:" + email
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeLockClient keeps lock values in memory and interprets the release
// script as compare-and-delete.
type fakeLockClient struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failure error
	scripts []string
}

func newFakeLockClient() *fakeLockClient {
	return &fakeLockClient{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeLockClient) SetNX(_ context.Context, key string, value interface{}, exp time.Duration) *redis.BoolCmd {
	if f.failure != nil {
		return redis.NewBoolResult(false, f.failure)
	}
	if _, held := f.values[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	f.ttls[key] = exp
	return redis.NewBoolResult(true, nil)
}

func (f *fakeLockClient) Eval(_ context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.scripts = append(f.scripts, script)
	if f.failure != nil {
		return redis.NewCmdResult(nil, f.failure)
	}
	if f.values[keys[0]] != args[0].(string) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(f.values, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}

// expire simulates the TTL lapsing.
func (f *fakeLockClient) expire(key string) {
	delete(f.values, key)
}

func sequentialTokens() func() string {
	n := 0
	return func() string {
		n++
		return "tok-" + string(rune('0'+n))
	}
}

func TestRegistrationGuard_AcquireRelease(t *testing.T) {
	client := newFakeLockClient()
	guard := NewRegistrationGuard(client, 0)
	ctx := context.Background()

	token, ok, err := guard.Acquire(ctx, "a@x.com")
	if err != nil || !ok || token == "" {
		t.Fatalf("first acquire: token=%q ok=%v err=%v", token, ok, err)
	}
	if ttl := client.ttls["register:a@x.com"]; ttl != defaultLockTTL {
		t.Fatalf("expected default ttl %s, got %s", defaultLockTTL, ttl)
	}
	if client.values["register:a@x.com"] != token {
		t.Fatalf("lock must store the returned token")
	}

	_, ok, err = guard.Acquire(ctx, "a@x.com")
	if err != nil || ok {
		t.Fatalf("second acquire must fail without error: ok=%v err=%v", ok, err)
	}

	if err := guard.Release(ctx, "a@x.com", token); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, _ = guard.Acquire(ctx, "a@x.com"); !ok {
		t.Fatal("expected lock to be free after release")
	}
}

func TestRegistrationGuard_ReleaseKeepsLockTakenAfterExpiry(t *testing.T) {
	client := newFakeLockClient()
	guard := NewRegistrationGuard(client, time.Second)
	guard.token = sequentialTokens()
	ctx := context.Background()

	first, ok, _ := guard.Acquire(ctx, "a@x.com")
	if !ok {
		t.Fatal("first acquire failed")
	}
	client.expire("register:a@x.com")

	second, ok, _ := guard.Acquire(ctx, "a@x.com")
	if !ok {
		t.Fatal("acquire after expiry failed")
	}

	// The slow first request finishes and releases with its stale token.
	if err := guard.Release(ctx, "a@x.com", first); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if client.values["register:a@x.com"] != second {
		t.Fatalf("stale release removed the lock held by the second request")
	}

	if err := guard.Release(ctx, "a@x.com", second); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, held := client.values["register:a@x.com"]; held {
		t.Fatal("owner release must remove the lock")
	}
}

func TestRegistrationGuard_ClientError(t *testing.T) {
	client := newFakeLockClient()
	client.failure = errors.New("connection refused")
	guard := NewRegistrationGuard(client, time.Second)

	_, ok, err := guard.Acquire(context.Background(), "a@x.com")
	if ok || !errors.Is(err, client.failure) {
		t.Fatalf("expected wrapped client error, got ok=%v err=%v", ok, err)
	}
	if err := guard.Release(context.Background(), "a@x.com", "tok"); !errors.Is(err, client.failure) {
		t.Fatalf("expected wrapped client error on release, got %v", err)
	}
}

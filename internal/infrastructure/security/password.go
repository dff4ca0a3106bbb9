package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"

	"github.com/seedlearn/seed-api/internal/core/ports"
)

// HashMethod selects the algorithm used for new password digests.
type HashMethod string

const (
	HashBcrypt   HashMethod = "bcrypt"
	HashArgon2ID HashMethod = "argon2id"
	// HashSHA256 is the legacy unsalted digest: deterministic, base64 over SHA-256.
	HashSHA256 HashMethod = "sha256"
)

var ErrUnknownHashMethod = errors.New("unknown password hash method")

type hasher interface {
	Hash(plaintext string) (string, error)
	Check(plaintext, digest string) (bool, error)
}

// SHA256Hasher reproduces the legacy digest format still present in seeded rows.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(plaintext string) (string, error) {
	sum := sha256.Sum256([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Check(plaintext, digest string) (bool, error) {
	computed, _ := h.Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1, nil
}

// bcryptMaxLen is the longest input bcrypt accepts. Longer passwords are
// reduced to base64(SHA-256) first, which fits.
const bcryptMaxLen = 72

type BcryptHasher struct {
	Cost int
}

func bcryptInput(plaintext string) []byte {
	if len(plaintext) <= bcryptMaxLen {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword(bcryptInput(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(b), nil
}

func (BcryptHasher) Check(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), bcryptInput(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt compare: %w", err)
	}
}

type Argon2IDHasher struct{}

func (Argon2IDHasher) Hash(plaintext string) (string, error) {
	s, err := argon2id.CreateHash(plaintext, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("argon2id hash: %w", err)
	}
	return s, nil
}

func (Argon2IDHasher) Check(plaintext, digest string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(plaintext, digest)
	if err != nil {
		return false, fmt.Errorf("argon2id compare: %w", err)
	}
	return ok, nil
}

// PasswordHasher hashes with the configured method and verifies digests of
// any supported format, so rows hashed under an older method keep working.
type PasswordHasher struct {
	method  HashMethod
	hashers map[HashMethod]hasher
}

var _ ports.PasswordHasher = (*PasswordHasher)(nil)

// NewPasswordHasher returns a hasher for method; an empty method means bcrypt.
func NewPasswordHasher(method string) (*PasswordHasher, error) {
	m := HashMethod(strings.ToLower(strings.TrimSpace(method)))
	if m == "" {
		m = HashBcrypt
	}
	h := &PasswordHasher{
		method: m,
		hashers: map[HashMethod]hasher{
			HashBcrypt:   BcryptHasher{},
			HashArgon2ID: Argon2IDHasher{},
			HashSHA256:   SHA256Hasher{},
		},
	}
	if _, ok := h.hashers[m]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashMethod, method)
	}
	return h, nil
}

func (h *PasswordHasher) Method() HashMethod {
	return h.method
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	return h.hashers[h.method].Hash(plaintext)
}

// Verify never errors: a malformed digest simply does not match.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	ok, err := h.hashers[detectMethod(digest)].Check(plaintext, digest)
	return err == nil && ok
}

func detectMethod(digest string) HashMethod {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return HashArgon2ID
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return HashBcrypt
	default:
		return HashSHA256
	}
}

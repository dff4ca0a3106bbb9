package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

// AuthService implements registration, login, refresh and logout.
type AuthService struct {
	users  ports.UserRepository
	admins ports.AdminRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	guard  ports.RegistrationGuard
	audit  ports.AuditSink
	log    zerolog.Logger
	now    func() time.Time

	decoyOnce sync.Once
	decoy     string
}

// AuthOption configures optional collaborators of AuthService.
type AuthOption func(*AuthService)

// WithRegistrationGuard serialises concurrent registrations of one email.
func WithRegistrationGuard(g ports.RegistrationGuard) AuthOption {
	return func(s *AuthService) { s.guard = g }
}

// WithAuditSink forwards every state change to the audit trail.
func WithAuditSink(sink ports.AuditSink) AuthOption {
	return func(s *AuthService) { s.audit = sink }
}

// WithClock replaces the time source used for expiry checks.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	users ports.UserRepository,
	admins ports.AdminRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:  users,
		admins: admins,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.AuthService = (*AuthService)(nil)

// Register creates a student or teacher account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" || email == "" || in.Password == "" || !in.Role.Valid() {
		return nil, domain.ErrInvalidInput
	}

	if s.guard != nil {
		token, acquired, err := s.guard.Acquire(ctx, email)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("email", email).Msg("registration lock unavailable, registering anyway")
		case !acquired:
			return nil, domain.ErrUserExists
		default:
			defer func() {
				if err := s.guard.Release(context.WithoutCancel(ctx), email, token); err != nil {
					s.log.Warn().Err(err).Str("email", email).Msg("failed to release registration lock")
				}
			}()
		}
	}

	// Soft-deleted accounts still occupy their email.
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("principal_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	s.emit(domain.AuthEvent{
		Type:        domain.EventRegistered,
		Kind:        domain.KindUser,
		PrincipalID: created.ID,
		Email:       email,
		Role:        created.Role,
	})
	return created, nil
}

// Authenticate logs a student or teacher in. An unknown email and a wrong
// password fail identically with domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string, role domain.Role) (*domain.TokenPair, error) {
	email = normalizeEmail(email)

	var user *domain.User
	if role.Valid() && email != "" {
		found, err := s.users.FindByEmailAndRole(ctx, email, role)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		user = found
	}

	if user == nil {
		s.burnVerify(password)
		s.loginFailed(domain.KindUser, email, role)
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(domain.KindUser, email, role)
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	pair, token, err := s.issuePair(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	from := domain.SessionStateOf(user.RefreshToken, now)
	// Any previous refresh token is discarded: one session per principal.
	user.RefreshToken = token
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("authenticate: persist refresh token: %w", err)
	}

	s.log.Info().Int64("principal_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	s.emit(domain.AuthEvent{
		Type:        domain.EventLoginSucceeded,
		Kind:        domain.KindUser,
		PrincipalID: user.ID,
		Email:       email,
		Role:        user.Role,
		From:        from,
		To:          domain.SessionAuthenticated,
	})
	return pair, nil
}

// AuthenticateAdmin is Authenticate against the admin identity space.
func (s *AuthService) AuthenticateAdmin(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	email = normalizeEmail(email)

	var admin *domain.Admin
	if email != "" {
		found, err := s.admins.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("authenticate admin: %w", err)
		}
		admin = found
	}

	if admin == nil {
		s.burnVerify(password)
		s.loginFailed(domain.KindAdmin, email, domain.RoleAdmin)
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, admin.PasswordHash) {
		s.loginFailed(domain.KindAdmin, email, domain.RoleAdmin)
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	pair, token, err := s.issuePair(admin.Identity())
	if err != nil {
		return nil, fmt.Errorf("authenticate admin: %w", err)
	}

	from := domain.SessionStateOf(admin.RefreshToken, now)
	admin.RefreshToken = token
	admin.UpdatedAt = now
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, fmt.Errorf("authenticate admin: persist refresh token: %w", err)
	}

	s.log.Info().Int64("principal_id", admin.ID).Msg("admin logged in")
	s.emit(domain.AuthEvent{
		Type:        domain.EventLoginSucceeded,
		Kind:        domain.KindAdmin,
		PrincipalID: admin.ID,
		Email:       email,
		Role:        domain.RoleAdmin,
		From:        from,
		To:          domain.SessionAuthenticated,
	})
	return pair, nil
}

// RefreshAccessToken mints a new access token for the owner of a stored,
// unexpired refresh token. The refresh token itself is not rotated.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if _, err := s.tokens.ParseRefreshToken(refreshToken); err != nil {
		s.emit(domain.AuthEvent{Type: domain.EventRefreshRejected})
		return "", domain.ErrTokenInvalid
	}

	owner, err := s.findOwner(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.emit(domain.AuthEvent{Type: domain.EventRefreshRejected})
			return "", domain.ErrTokenInvalid
		}
		return "", fmt.Errorf("refresh: %w", err)
	}

	now := s.now().UTC()
	from := domain.SessionStateOf(owner.token, now)
	if owner.token == nil || owner.token.Expired(now) || !from.CanTransitionTo(domain.SessionRefreshed) {
		s.emit(owner.event(domain.EventRefreshRejected, "", ""))
		return "", domain.ErrTokenInvalid
	}

	access, err := s.tokens.IssueAccessToken(owner.identity)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}

	s.log.Debug().Int64("principal_id", owner.identity.ID).Str("role", string(owner.identity.Role)).Msg("access token refreshed")
	s.emit(owner.event(domain.EventTokenRefreshed, from, domain.SessionRefreshed))
	return access, nil
}

// RevokeRefreshToken detaches the stored refresh token (logout). Access
// tokens already issued stay valid until they expire.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.ErrTokenInvalid
	}

	owner, err := s.findOwner(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrTokenInvalid
		}
		return fmt.Errorf("revoke: %w", err)
	}

	now := s.now().UTC()
	from, to := domain.SessionStateOf(owner.token, now), domain.SessionLoggedOut
	if !from.CanTransitionTo(to) {
		// Revoking a lapsed token ends nothing that was live.
		from, to = "", ""
	}
	if err := owner.detach(ctx, now); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}

	s.log.Info().Int64("principal_id", owner.identity.ID).Str("role", string(owner.identity.Role)).Msg("refresh token revoked")
	s.emit(owner.event(domain.EventLoggedOut, from, to))
	return nil
}

// tokenOwner is the principal resolved from a refresh token, user or admin.
type tokenOwner struct {
	identity domain.Identity
	email    string
	token    *domain.RefreshToken
	detach   func(ctx context.Context, now time.Time) error
}

func (o *tokenOwner) event(t domain.AuthEventType, from, to domain.SessionState) domain.AuthEvent {
	return domain.AuthEvent{
		Type:        t,
		Kind:        o.identity.Kind,
		PrincipalID: o.identity.ID,
		Email:       o.email,
		Role:        o.identity.Role,
		From:        from,
		To:          to,
	}
}

// findOwner resolves a refresh token against users first, then admins.
func (s *AuthService) findOwner(ctx context.Context, refreshToken string) (*tokenOwner, error) {
	digest := domain.DigestRefreshToken(refreshToken)

	user, err := s.users.FindByRefreshToken(ctx, digest)
	if err == nil {
		return &tokenOwner{
			identity: user.Identity(),
			email:    user.Email,
			token:    user.RefreshToken,
			detach: func(ctx context.Context, now time.Time) error {
				user.RefreshToken = nil
				user.UpdatedAt = now
				return s.users.Update(ctx, user)
			},
		}, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	admin, err := s.admins.FindByRefreshToken(ctx, digest)
	if err != nil {
		return nil, err
	}
	return &tokenOwner{
		identity: admin.Identity(),
		email:    admin.Email,
		token:    admin.RefreshToken,
		detach: func(ctx context.Context, now time.Time) error {
			admin.RefreshToken = nil
			admin.UpdatedAt = now
			return s.admins.Update(ctx, admin)
		},
	}, nil
}

func (s *AuthService) issuePair(id domain.Identity) (*domain.TokenPair, *domain.RefreshToken, error) {
	access, err := s.tokens.IssueAccessToken(id)
	if err != nil {
		return nil, nil, err
	}
	refresh, expiresAt, err := s.tokens.IssueRefreshToken(id)
	if err != nil {
		return nil, nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh},
		domain.NewRefreshToken(refresh, expiresAt), nil
}

// burnVerify spends the cost of a real verification so that an unknown
// email takes as long to reject as a wrong password.
func (s *AuthService) burnVerify(password string) {
	s.decoyOnce.Do(func() {
		if d, err := s.hasher.Hash("decoy-password"); err == nil {
			s.decoy = d
		}
	})
	_ = s.hasher.Verify(password, s.decoy)
}

func (s *AuthService) loginFailed(kind domain.PrincipalKind, email string, role domain.Role) {
	s.log.Info().Str("email", email).Str("role", string(role)).Msg("login rejected")
	s.emit(domain.AuthEvent{Type: domain.EventLoginFailed, Kind: kind, Email: email, Role: role})
}

func (s *AuthService) emit(event domain.AuthEvent) {
	if s.audit == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	s.audit.Enqueue(event)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

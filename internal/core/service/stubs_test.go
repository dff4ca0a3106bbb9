package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User

	findErr error
	updates int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.RefreshToken != nil {
		rt := *u.RefreshToken
		c.RefreshToken = &rt
	}
	return &c
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) FindByEmailAndRole(_ context.Context, email string, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email && u.Role == role && u.DeletedAt == nil {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByRefreshToken(_ context.Context, digest string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && u.RefreshToken.Digest == digest && u.DeletedAt == nil {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c := cloneUser(user)
	c.ID = r.nextID
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	r.updates++
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return domain.ErrUserNotFound
	}
	u.DeletedAt = &at
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.User
	for _, u := range r.users {
		if u.DeletedAt != nil || (f.Role != "" && u.Role != f.Role) {
			continue
		}
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + int64(f.Limit)
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// stored returns the repository's own copy, for assertions.
func (r *stubUserRepo) stored(id int64) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

type stubAdminRepo struct {
	admins map[int64]*domain.Admin
}

func newStubAdminRepo(admins ...*domain.Admin) *stubAdminRepo {
	r := &stubAdminRepo{admins: make(map[int64]*domain.Admin)}
	for _, a := range admins {
		r.admins[a.ID] = a
	}
	return r
}

func cloneAdmin(a *domain.Admin) *domain.Admin {
	c := *a
	if a.RefreshToken != nil {
		rt := *a.RefreshToken
		c.RefreshToken = &rt
	}
	return &c
}

func (r *stubAdminRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, a := range r.admins {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAdminRepo) FindByEmail(_ context.Context, email string) (*domain.Admin, error) {
	for _, a := range r.admins {
		if a.Email == email && a.DeletedAt == nil {
			return cloneAdmin(a), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAdminRepo) FindByRefreshToken(_ context.Context, digest string) (*domain.Admin, error) {
	for _, a := range r.admins {
		if a.RefreshToken != nil && a.RefreshToken.Digest == digest {
			return cloneAdmin(a), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAdminRepo) FindAny(_ context.Context) (*domain.Admin, error) {
	for _, a := range r.admins {
		return cloneAdmin(a), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAdminRepo) Create(_ context.Context, admin *domain.Admin) (*domain.Admin, error) {
	c := cloneAdmin(admin)
	c.ID = int64(len(r.admins) + 1)
	r.admins[c.ID] = c
	return cloneAdmin(c), nil
}

func (r *stubAdminRepo) Update(_ context.Context, admin *domain.Admin) error {
	r.admins[admin.ID] = cloneAdmin(admin)
	return nil
}

type stubGuard struct {
	held       map[string]bool
	acquireErr error
	released   []string
}

func newStubGuard() *stubGuard {
	return &stubGuard{held: make(map[string]bool)}
}

func (g *stubGuard) Acquire(_ context.Context, email string) (string, bool, error) {
	if g.acquireErr != nil {
		return "", false, g.acquireErr
	}
	if g.held[email] {
		return "", false, nil
	}
	g.held[email] = true
	return "token-" + email, true, nil
}

func (g *stubGuard) Release(_ context.Context, email, token string) error {
	if token != "token-"+email {
		return errors.New("release with foreign token")
	}
	delete(g.held, email)
	g.released = append(g.released, email)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (s *recordingSink) Enqueue(e domain.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) types() []domain.AuthEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuthEventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

// clock is a settable time source shared by the service and the token issuer.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

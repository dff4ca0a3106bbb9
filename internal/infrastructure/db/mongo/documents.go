package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

type refreshTokenDoc struct {
	TokenHash string    `bson:"token_hash"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type userDoc struct {
	ID           int64            `bson:"_id"`
	Name         string           `bson:"name"`
	Email        string           `bson:"email"`
	Biography    string           `bson:"biography,omitempty"`
	PasswordHash string           `bson:"password_hash"`
	Role         string           `bson:"role"`
	RefreshToken *refreshTokenDoc `bson:"refresh_token,omitempty"`
	CreatedAt    time.Time        `bson:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at"`
	DeletedAt    *time.Time       `bson:"deleted_at,omitempty"`
}

type adminDoc struct {
	ID           int64            `bson:"_id"`
	Email        string           `bson:"email"`
	PasswordHash string           `bson:"password_hash"`
	RefreshToken *refreshTokenDoc `bson:"refresh_token,omitempty"`
	CreatedAt    time.Time        `bson:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at"`
	DeletedAt    *time.Time       `bson:"deleted_at,omitempty"`
}

func toRefreshTokenDoc(t *domain.RefreshToken) *refreshTokenDoc {
	if t == nil {
		return nil
	}
	return &refreshTokenDoc{TokenHash: t.Digest, ExpiresAt: t.ExpiresAt.UTC()}
}

func (d *refreshTokenDoc) toDomain() *domain.RefreshToken {
	if d == nil {
		return nil
	}
	return &domain.RefreshToken{Digest: d.TokenHash, ExpiresAt: d.ExpiresAt.UTC()}
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Biography:    u.Biography,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		RefreshToken: toRefreshTokenDoc(u.RefreshToken),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		DeletedAt:    u.DeletedAt,
	}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		Biography:    d.Biography,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		RefreshToken: d.RefreshToken.toDomain(),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		DeletedAt:    d.DeletedAt,
	}
}

func toAdminDoc(a *domain.Admin) adminDoc {
	return adminDoc{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		RefreshToken: toRefreshTokenDoc(a.RefreshToken),
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
		DeletedAt:    a.DeletedAt,
	}
}

func (d *adminDoc) toDomain() *domain.Admin {
	return &domain.Admin{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		RefreshToken: d.RefreshToken.toDomain(),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		DeletedAt:    d.DeletedAt,
	}
}

// refreshTokenUpdate builds the update that stores or detaches a refresh
// token alongside the other mutable fields in set.
func refreshTokenUpdate(set bson.M, t *domain.RefreshToken) bson.M {
	if t == nil {
		return bson.M{"$set": set, "$unset": bson.M{"refresh_token": ""}}
	}
	set["refresh_token"] = toRefreshTokenDoc(t)
	return bson.M{"$set": set}
}

// active matches documents that were never soft-deleted.
func active(filter bson.M) bson.M {
	filter["deleted_at"] = nil
	return filter
}

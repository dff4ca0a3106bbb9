package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

// AdminRepository stores administrators in their own collection, apart from users.
type AdminRepository struct {
	col *mongo.Collection
	ids *sequence
}

func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{
		col: db.Collection(collectionAdmins),
		ids: newSequence(db, collectionAdmins),
	}
}

var _ ports.AdminRepository = (*AdminRepository)(nil)

func (r *AdminRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count admins by email: %w", err)
	}
	return n > 0, nil
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.findOne(ctx, active(bson.M{"email": email}), nil)
}

func (r *AdminRepository) FindByRefreshToken(ctx context.Context, digest string) (*domain.Admin, error) {
	return r.findOne(ctx, active(bson.M{"refresh_token.token_hash": digest}), nil)
}

func (r *AdminRepository) FindAny(ctx context.Context) (*domain.Admin, error) {
	return r.findOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *AdminRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if opts == nil {
		opts = options.FindOne()
	}
	var doc adminDoc
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AdminRepository) Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}

	doc := toAdminDoc(admin)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	return doc.toDomain(), nil
}

// Update rewrites the admin, soft-deleted or not; the seeder uses it to
// restore the configured credentials.
func (r *AdminRepository) Update(ctx context.Context, admin *domain.Admin) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"email":         admin.Email,
		"password_hash": admin.PasswordHash,
		"updated_at":    admin.UpdatedAt.UTC(),
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": admin.ID}, refreshTokenUpdate(set, admin.RefreshToken))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update admin: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db}
}

// InsertEvent persists an authentication event to the auth_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.Collection(collectionAuthEvents).InsertOne(ctx, auditDocument(event, time.Now().UTC()))
	return err
}

func auditDocument(event *domain.AuthEvent, processedAt time.Time) bson.M {
	doc := bson.M{
		"type":         string(event.Type),
		"kind":         string(event.Kind),
		"timestamp":    event.Timestamp.UTC(),
		"processed_at": processedAt,
	}
	if event.PrincipalID != 0 {
		doc["principal_id"] = event.PrincipalID
	}
	if event.Email != "" {
		doc["email"] = event.Email
	}
	if event.Role != "" {
		doc["role"] = string(event.Role)
	}
	if event.To != "" {
		doc["transition"] = bson.M{
			"from": string(event.From),
			"to":   string(event.To),
		}
	}
	return doc
}

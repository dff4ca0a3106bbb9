package ports

import (
	"context"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// AuditRepository persists authentication audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

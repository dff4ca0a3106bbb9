package ports

import (
	"context"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// AuditService processes a single audit event off the request path.
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}

// AuditSink accepts events without blocking the caller's request.
type AuditSink interface {
	Enqueue(event domain.AuthEvent)
}

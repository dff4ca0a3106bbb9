package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Process validates and persists a single audit event.
func (s *auditService) Process(ctx context.Context, event domain.AuthEvent) error {
	if event.Type == "" {
		return fmt.Errorf("process audit event: %w: missing type", domain.ErrInvalidInput)
	}
	// A recorded transition must be one the session state machine allows.
	if event.To != "" && !event.From.CanTransitionTo(event.To) {
		return fmt.Errorf("process audit event: %w: %s -> %s", domain.ErrInvalidInput, event.From, event.To)
	}

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("process audit event: insert: %w", err)
	}

	s.log.Debug().
		Str("event", string(event.Type)).
		Str("kind", string(event.Kind)).
		Int64("principal_id", event.PrincipalID).
		Msg("audit event recorded")
	return nil
}

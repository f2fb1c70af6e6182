package repository

import (
	"context"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/google/uuid"
)

type EventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	// GetByIDs skips ids that do not exist.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Event, error)
	// ListByStatus returns events ordered by date ascending.
	ListByStatus(ctx context.Context, status domain.EventStatus, limit int) ([]*domain.Event, error)
}

// RegistrationRepository is the registration ledger. Register and Cancel keep
// the event's registered_count in step with the ledger atomically.
type RegistrationRepository interface {
	Get(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error)
	Register(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error)
	Cancel(ctx context.Context, eventID, userID uuid.UUID) error
	ListActiveByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Registration, error)
}

package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

const (
	DefaultUpcomingLimit = 12
	MaxUpcomingLimit     = 100
)

type EventUseCase struct {
	eventRepo        repository.EventRepository
	registrationRepo repository.RegistrationRepository
}

func NewEventUseCase(
	eventRepo repository.EventRepository,
	registrationRepo repository.RegistrationRepository,
) *EventUseCase {
	return &EventUseCase{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
	}
}

// EventResponse represents an event with the viewer's registration state
type EventResponse struct {
	*domain.Event
	SpotsLeft    int                  `json:"spots_left"`
	IsFull       bool                 `json:"is_full"`
	Registration *domain.Registration `json:"registration,omitempty"`
}

// ListUpcoming returns upcoming events, soonest first
func (uc *EventUseCase) ListUpcoming(ctx context.Context, limit int) ([]*EventResponse, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	if limit > MaxUpcomingLimit {
		limit = MaxUpcomingLimit
	}
	events, err := uc.eventRepo.ListByStatus(ctx, domain.EventUpcoming, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toResponse(e, nil))
	}
	return out, nil
}

// GetEvent returns one event. When viewerID is set, the viewer's active
// registration is attached.
func (uc *EventUseCase) GetEvent(ctx context.Context, eventID, viewerID uuid.UUID) (*EventResponse, error) {
	e, err := uc.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	var reg *domain.Registration
	if viewerID != uuid.Nil {
		reg, err = uc.registrationRepo.Get(ctx, eventID, viewerID)
		if err != nil && !errors.Is(err, domain.ErrRegistrationNotFound) {
			return nil, fmt.Errorf("failed to load registration: %w", err)
		}
		if reg != nil && !reg.IsActive() {
			reg = nil
		}
	}
	return toResponse(e, reg), nil
}

// Register claims a seat for the user.
func (uc *EventUseCase) Register(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	reg, err := uc.registrationRepo.Register(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	slog.Info("user registered for event", "event_id", eventID, "user_id", userID)
	return reg, nil
}

// CancelRegistration releases the user's seat.
func (uc *EventUseCase) CancelRegistration(ctx context.Context, eventID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	if err := uc.registrationRepo.Cancel(ctx, eventID, userID); err != nil {
		return err
	}
	slog.Info("registration cancelled", "event_id", eventID, "user_id", userID)
	return nil
}

func (uc *EventUseCase) GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	return uc.registrationRepo.Get(ctx, eventID, userID)
}

func toResponse(e *domain.Event, reg *domain.Registration) *EventResponse {
	return &EventResponse{
		Event:        e,
		SpotsLeft:    e.SpotsLeft(),
		IsFull:       e.IsFull(),
		Registration: reg,
	}
}

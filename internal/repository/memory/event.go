package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

type eventRepository struct {
	s *Store
}

func (s *Store) Events() repository.EventRepository {
	return &eventRepository{s: s}
}

func (r *eventRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *eventRepository) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[uuid.UUID]*domain.Event, len(ids))
	for _, id := range ids {
		if e, ok := r.s.events[id]; ok {
			cp := *e
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *eventRepository) ListByStatus(_ context.Context, status domain.EventStatus, limit int) ([]*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Event{}
	for _, e := range r.s.events {
		if e.Status == status {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type registrationRepository struct {
	s *Store
}

func (s *Store) Registrations() repository.RegistrationRepository {
	return &registrationRepository{s: s}
}

func (r *registrationRepository) Get(_ context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[regKey{event: eventID, user: userID}]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *registrationRepository) Register(_ context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := regKey{event: eventID, user: userID}
	existing, ok := r.s.registrations[key]
	if ok && existing.Status != domain.RegistrationCancelled {
		return nil, domain.ErrAlreadyRegistered
	}

	event, found := r.s.events[eventID]
	if !found {
		return nil, domain.ErrEventNotFound
	}
	if event.Status != domain.EventUpcoming {
		return nil, domain.ErrEventNotOpen
	}
	if event.IsFull() {
		return nil, domain.ErrEventFull
	}
	event.RegisteredCount++

	if ok {
		existing.Status = domain.RegistrationRegistered
		cp := *existing
		return &cp, nil
	}
	reg := &domain.Registration{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   eventID,
		Status:    domain.RegistrationRegistered,
		CreatedAt: time.Now(),
	}
	r.s.registrations[key] = reg
	cp := *reg
	return &cp, nil
}

func (r *registrationRepository) Cancel(_ context.Context, eventID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[regKey{event: eventID, user: userID}]
	if !ok || reg.Status == domain.RegistrationCancelled {
		return domain.ErrRegistrationNotFound
	}
	reg.Status = domain.RegistrationCancelled
	if event, found := r.s.events[eventID]; found && event.RegisteredCount > 0 {
		event.RegisteredCount--
	}
	return nil
}

func (r *registrationRepository) ListActiveByEvent(_ context.Context, eventID uuid.UUID) ([]*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Registration{}
	for key, reg := range r.s.registrations {
		if key.event == eventID && reg.IsActive() {
			cp := *reg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

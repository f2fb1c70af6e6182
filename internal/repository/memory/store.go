// Package memory provides in-process repositories with the same atomicity
// guarantees as the PostgreSQL implementations. Every mutation runs under the
// store mutex, which plays the role of the database's row locks.
package memory

import (
	"sync"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/google/uuid"
)

type pairKey struct {
	event uuid.UUID
	user1 uuid.UUID
	user2 uuid.UUID
}

func newPairKey(eventID, a, b uuid.UUID) pairKey {
	u1, u2 := domain.OrderPair(a, b)
	return pairKey{event: eventID, user1: u1, user2: u2}
}

type regKey struct {
	event uuid.UUID
	user  uuid.UUID
}

type Store struct {
	mu sync.Mutex

	profiles      map[uuid.UUID]*domain.Profile
	events        map[uuid.UUID]*domain.Event
	registrations map[regKey]*domain.Registration
	matches       map[uuid.UUID]*domain.Match
	matchByPair   map[pairKey]uuid.UUID
	messages      map[uuid.UUID][]*domain.Message
	nextSeq       int64
}

func NewStore() *Store {
	return &Store{
		profiles:      make(map[uuid.UUID]*domain.Profile),
		events:        make(map[uuid.UUID]*domain.Event),
		registrations: make(map[regKey]*domain.Registration),
		matches:       make(map[uuid.UUID]*domain.Match),
		matchByPair:   make(map[pairKey]uuid.UUID),
		messages:      make(map[uuid.UUID][]*domain.Message),
	}
}

// PutEvent inserts or replaces an event. Events are owned by an external
// organiser tool, so this is only used for seeding.
func (s *Store) PutEvent(e *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.events[e.ID] = &cp
}

// PutRegistration inserts a registration row without touching counters.
func (s *Store) PutRegistration(r *domain.Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	s.registrations[regKey{event: r.EventID, user: r.UserID}] = &cp
}

func copyMatch(m *domain.Match) *domain.Match {
	cp := *m
	if m.MutualAt != nil {
		t := *m.MutualAt
		cp.MutualAt = &t
	}
	cp.Icebreakers = append([]string(nil), m.Icebreakers...)
	return &cp
}

func copyMessage(m *domain.Message) *domain.Message {
	cp := *m
	if m.ClientToken != nil {
		tok := *m.ClientToken
		cp.ClientToken = &tok
	}
	return &cp
}

func copyProfile(p *domain.Profile) *domain.Profile {
	cp := *p
	cp.Interests = append([]string(nil), p.Interests...)
	cp.LookingFor = append([]string(nil), p.LookingFor...)
	return &cp
}

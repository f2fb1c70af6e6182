package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

type matchRepository struct {
	s *Store
}

func (s *Store) Matches() repository.MatchRepository {
	return &matchRepository{s: s}
}

func (r *matchRepository) UpsertInterest(_ context.Context, eventID, fromUser, towardUser uuid.UUID, now time.Time) (*domain.Match, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := newPairKey(eventID, fromUser, towardUser)
	id, ok := r.s.matchByPair[key]
	if !ok {
		m := domain.NewMatch(eventID, fromUser, towardUser, now)
		r.s.matches[m.ID] = m
		r.s.matchByPair[key] = m.ID
		return copyMatch(m), false, nil
	}

	m := r.s.matches[id]
	next := copyMatch(m)
	became, err := next.ApplyInterest(fromUser, now)
	if err != nil {
		return copyMatch(m), false, err
	}
	r.s.matches[id] = next
	return copyMatch(next), became, nil
}

func (r *matchRepository) Withdraw(_ context.Context, eventID, fromUser, towardUser uuid.UUID) (*domain.Match, error) {
	return r.mutate(eventID, fromUser, towardUser, func(m *domain.Match) error {
		return m.ApplyWithdraw(fromUser)
	})
}

func (r *matchRepository) Decline(_ context.Context, eventID, fromUser, towardUser uuid.UUID) (*domain.Match, error) {
	return r.mutate(eventID, fromUser, towardUser, func(m *domain.Match) error {
		return m.ApplyDecline(fromUser)
	})
}

func (r *matchRepository) mutate(eventID, a, b uuid.UUID, apply func(*domain.Match) error) (*domain.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.matchByPair[newPairKey(eventID, a, b)]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	next := copyMatch(r.s.matches[id])
	if err := apply(next); err != nil {
		return nil, err
	}
	r.s.matches[id] = next
	return copyMatch(next), nil
}

func (r *matchRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return copyMatch(m), nil
}

func (r *matchRepository) GetByUsers(_ context.Context, eventID, user1ID, user2ID uuid.UUID) (*domain.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.matchByPair[newPairKey(eventID, user1ID, user2ID)]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return copyMatch(r.s.matches[id]), nil
}

func (r *matchRepository) filter(keep func(*domain.Match) bool) []*domain.Match {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Match{}
	for _, m := range r.s.matches {
		if keep(m) {
			out = append(out, copyMatch(m))
		}
	}
	return out
}

func (r *matchRepository) ListMutual(_ context.Context, userID uuid.UUID) ([]*domain.Match, error) {
	out := r.filter(func(m *domain.Match) bool {
		return m.HasUser(userID) && m.Status == domain.MatchMutual
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MutualAt.Equal(*out[j].MutualAt) {
			return out[i].MutualAt.After(*out[j].MutualAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *matchRepository) ListAwaitingResponse(_ context.Context, userID uuid.UUID) ([]*domain.Match, error) {
	out := r.filter(func(m *domain.Match) bool {
		return m.AwaitingResponseFrom(userID)
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *matchRepository) CountAwaitingResponse(ctx context.Context, userID uuid.UUID) (int, error) {
	out, err := r.ListAwaitingResponse(ctx, userID)
	return len(out), err
}

func (r *matchRepository) ListByEventAndUser(_ context.Context, eventID, userID uuid.UUID) ([]*domain.Match, error) {
	return r.filter(func(m *domain.Match) bool {
		return m.EventID == eventID && m.HasUser(userID)
	}), nil
}

func (r *matchRepository) UpdateIcebreakers(_ context.Context, matchID uuid.UUID, icebreakers []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	next := copyMatch(m)
	next.Icebreakers = append([]string(nil), icebreakers...)
	r.s.matches[matchID] = next
	return nil
}

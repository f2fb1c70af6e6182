package memory

import (
	"context"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

type profileRepository struct {
	s *Store
}

func (s *Store) Profiles() repository.ProfileRepository {
	return &profileRepository{s: s}
}

func (r *profileRepository) Create(_ context.Context, profile *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[profile.UserID]; ok {
		return domain.ErrProfileAlreadyExists
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	r.s.profiles[profile.UserID] = copyProfile(profile)
	return nil
}

func (r *profileRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return copyProfile(p), nil
}

func (r *profileRepository) GetByUserIDs(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[uuid.UUID]*domain.Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := r.s.profiles[id]; ok {
			out[id] = copyProfile(p)
		}
	}
	return out, nil
}

func (r *profileRepository) Update(_ context.Context, profile *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[profile.UserID]; !ok {
		return domain.ErrProfileNotFound
	}
	profile.UpdatedAt = time.Now()
	r.s.profiles[profile.UserID] = copyProfile(profile)
	return nil
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/repository"
)

type revocationRepository struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewRevocationRepository returns a process-local revocation list.
func NewRevocationRepository() repository.TokenRevocationRepository {
	return &revocationRepository{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *revocationRepository) Revoke(_ context.Context, tokenHash string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for k, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, k)
		}
	}
	if ttl > 0 {
		r.revoked[tokenHash] = now.Add(ttl)
	}
	return nil
}

func (r *revocationRepository) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.revoked[tokenHash]
	return ok && exp.After(r.now()), nil
}

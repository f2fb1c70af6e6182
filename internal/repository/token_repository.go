package repository

import (
	"context"
	"time"
)

// TokenRevocationRepository remembers logged-out tokens until they expire.
type TokenRevocationRepository interface {
	Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

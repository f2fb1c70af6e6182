// Package redis keeps short-lived auth state in Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/repository"
	goredis "github.com/redis/go-redis/v9"
)

const revokedPrefix = "auth:revoked:"

type revocationRepository struct {
	client *goredis.Client
}

func NewRevocationRepository(client *goredis.Client) repository.TokenRevocationRepository {
	return &revocationRepository{client: client}
}

func (r *revocationRepository) Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedPrefix+tokenHash, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *revocationRepository) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedPrefix+tokenHash).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

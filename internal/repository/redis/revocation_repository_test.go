package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

func TestRevocationRepository(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	repo := NewRevocationRepository(client)
	hash := uuid.NewString()

	revoked, err := repo.IsRevoked(ctx, hash)
	if err != nil || revoked {
		t.Fatalf("fresh hash reported revoked=%v err=%v", revoked, err)
	}
	if err := repo.Revoke(ctx, hash, time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked, err = repo.IsRevoked(ctx, hash); err != nil || !revoked {
		t.Fatalf("expected revoked, got %v (%v)", revoked, err)
	}
	if ttl := client.TTL(ctx, revokedPrefix+hash).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	expired := uuid.NewString()
	if err := repo.Revoke(ctx, expired, 0); err != nil {
		t.Fatalf("Revoke expired: %v", err)
	}
	if revoked, _ := repo.IsRevoked(ctx, expired); revoked {
		t.Fatalf("already expired tokens need no entry")
	}
}

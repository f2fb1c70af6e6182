package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "messages:"

// RedisBroker shares one delivery channel between service instances: every
// instance publishes to Redis and relays what it hears into its local hub.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
}

func NewRedisBroker(client *redis.Client, hub *Hub) *RedisBroker {
	return &RedisBroker{client: client, hub: hub}
}

func channelFor(matchID uuid.UUID) string {
	return channelPrefix + matchID.String()
}

func (b *RedisBroker) Publish(ctx context.Context, msg *domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := b.client.Publish(ctx, channelFor(msg.MatchID), data).Err(); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(matchID uuid.UUID) *Subscription {
	return b.hub.Subscribe(matchID)
}

// Run relays Redis messages into the local hub until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to message channels: %w", err)
	}
	slog.Info("relaying messages from redis", "pattern", channelPrefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			var msg domain.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				slog.Warn("discarding malformed message payload", "channel", raw.Channel, "error", err)
				continue
			}
			if want := strings.TrimPrefix(raw.Channel, channelPrefix); want != msg.MatchID.String() {
				slog.Warn("message published on foreign channel", "channel", raw.Channel, "match_id", msg.MatchID)
				continue
			}
			b.hub.Deliver(&msg)
		}
	}
}

package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestHub_FanOutToEverySubscriber(t *testing.T) {
	hub := NewHub(4)
	matchID := uuid.New()

	first := hub.Subscribe(matchID)
	second := hub.Subscribe(matchID)
	other := hub.Subscribe(uuid.New())
	defer first.Close()
	defer second.Close()
	defer other.Close()

	msg := &domain.Message{ID: uuid.New(), MatchID: matchID, Content: "hello"}
	if n := hub.Deliver(msg); n != 2 {
		t.Fatalf("expected delivery to 2 subscribers, got %d", n)
	}

	for _, sub := range []*Subscription{first, second} {
		select {
		case got := <-sub.Messages():
			if got.ID != msg.ID {
				t.Fatalf("unexpected message %s", got.ID)
			}
		default:
			t.Fatalf("subscriber did not receive the message")
		}
	}

	select {
	case <-other.Messages():
		t.Fatalf("subscriber of another match received the message")
	default:
	}
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(4)
	matchID := uuid.New()

	sub := hub.Subscribe(matchID)
	sub.Close()
	sub.Close()

	if _, ok := <-sub.Messages(); ok {
		t.Fatalf("expected closed channel")
	}
	if hub.SubscriberCount(matchID) != 0 {
		t.Fatalf("subscription still registered")
	}
	if n := hub.Deliver(&domain.Message{MatchID: matchID}); n != 0 {
		t.Fatalf("delivered to a closed subscription")
	}
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(1)
	matchID := uuid.New()

	slow := hub.Subscribe(matchID)
	hub.Deliver(&domain.Message{MatchID: matchID, Content: "1"})
	hub.Deliver(&domain.Message{MatchID: matchID, Content: "2"})

	if hub.SubscriberCount(matchID) != 0 {
		t.Fatalf("slow subscriber should have been dropped")
	}
	got := <-slow.Messages()
	if got.Content != "1" {
		t.Fatalf("buffered message lost, got %q", got.Content)
	}
	if _, ok := <-slow.Messages(); ok {
		t.Fatalf("expected channel closed after drop")
	}
}

func TestRedisBroker_RelaysPublishedMessages(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	hub := NewHub(4)
	broker := NewRedisBroker(client, hub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = broker.Run(ctx) }()

	matchID := uuid.New()
	sub := broker.Subscribe(matchID)
	defer sub.Close()

	// give the pattern subscription a moment to register
	time.Sleep(200 * time.Millisecond)

	msg := &domain.Message{ID: uuid.New(), MatchID: matchID, Content: "via redis"}
	if err := broker.Publish(ctx, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-sub.Messages():
		if got.ID != msg.ID || got.Content != msg.Content {
			t.Fatalf("unexpected relayed message %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message not relayed")
	}
}

// Package realtime fans newly created messages out to the viewers of a match.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/google/uuid"
)

const DefaultBuffer = 32

// Broker publishes messages and hands out per-match subscriptions.
type Broker interface {
	Publish(ctx context.Context, msg *domain.Message) error
	Subscribe(matchID uuid.UUID) *Subscription
}

// Subscription is a cancellable stream of messages for one match.
type Subscription struct {
	MatchID uuid.UUID

	hub *Hub
	id  int64
	ch  chan *domain.Message
}

// Messages yields new messages in publish order. The channel is closed when
// the subscription is closed or dropped for falling behind.
func (s *Subscription) Messages() <-chan *domain.Message {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.MatchID, s.id)
}

// Hub is the in-process fan-out. Delivery never blocks the publisher: a
// subscriber whose buffer is full is dropped and must reload via ListMessages.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[int64]*Subscription
	nextID int64
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[uuid.UUID]map[int64]*Subscription),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe(matchID uuid.UUID) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[matchID]; !ok {
		h.subs[matchID] = make(map[int64]*Subscription)
	}
	h.nextID++
	sub := &Subscription{
		MatchID: matchID,
		hub:     h,
		id:      h.nextID,
		ch:      make(chan *domain.Message, h.buffer),
	}
	h.subs[matchID][sub.id] = sub
	return sub
}

func (h *Hub) unsubscribe(matchID uuid.UUID, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.subs[matchID]
	if !ok {
		return
	}
	sub, ok := conns[id]
	if !ok {
		return
	}
	delete(conns, id)
	close(sub.ch)
	if len(conns) == 0 {
		delete(h.subs, matchID)
	}
}

// Publish delivers msg to local subscribers.
func (h *Hub) Publish(_ context.Context, msg *domain.Message) error {
	h.Deliver(msg)
	return nil
}

// Deliver fans msg out to every subscriber of its match and returns how many
// received it.
func (h *Hub) Deliver(msg *domain.Message) int {
	var (
		delivered int
		slow      []int64
	)

	h.mu.RLock()
	for id, sub := range h.subs[msg.MatchID] {
		cp := *msg
		select {
		case sub.ch <- &cp:
			delivered++
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		slog.Warn("dropping slow message subscriber", "match_id", msg.MatchID, "subscription", id)
		h.unsubscribe(msg.MatchID, id)
	}
	return delivered
}

func (h *Hub) SubscriberCount(matchID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[matchID])
}

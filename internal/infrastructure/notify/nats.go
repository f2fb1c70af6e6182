// Package notify publishes match notifications to NATS JetStream.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName     = "SPEEDDATE_NOTIFICATIONS"
	subjectPrefix  = "notify."
	publishTimeout = 5 * time.Second
)

// MatchNotification is the payload delivered to each participant.
type MatchNotification struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	UserID      uuid.UUID `json:"user_id"`
	MatchID     uuid.UUID `json:"match_id"`
	EventID     uuid.UUID `json:"event_id"`
	WithUserID  uuid.UUID `json:"with_user_id"`
	Icebreakers []string  `json:"icebreakers,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewPublisher(ctx context.Context, natsURL string) (*Publisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("speeddate-backend"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectPrefix + ">"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		slog.Warn("failed to create notification stream (may already exist)", "stream", streamName, "error", err)
	}

	return &Publisher{nc: nc, js: js}, nil
}

func (p *Publisher) Close() {
	p.nc.Close()
}

// NotifyMatch publishes one notification per participant on notify.<user_id>.
func (p *Publisher) NotifyMatch(ctx context.Context, m *domain.Match) error {
	now := time.Now()
	for _, pair := range [][2]uuid.UUID{{m.UserID1, m.UserID2}, {m.UserID2, m.UserID1}} {
		n := MatchNotification{
			ID:          uuid.New(),
			Type:        "match.mutual",
			UserID:      pair[0],
			MatchID:     m.ID,
			EventID:     m.EventID,
			WithUserID:  pair[1],
			Icebreakers: m.Icebreakers,
			CreatedAt:   now,
		}
		if err := p.publish(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, n MatchNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	subject := SubjectFor(n.UserID)

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := p.js.Publish(pubCtx, subject, data, jetstream.WithMsgID(n.MatchID.String()+":"+n.UserID.String())); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	slog.Debug("published notification", "subject", subject, "type", n.Type)
	return nil
}

func SubjectFor(userID uuid.UUID) string {
	return subjectPrefix + userID.String()
}

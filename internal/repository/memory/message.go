package memory

import (
	"context"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

type messageRepository struct {
	s *Store
}

func (s *Store) Messages() repository.MessageRepository {
	return &messageRepository{s: s}
}

func (r *messageRepository) Create(_ context.Context, msg *domain.Message) (*domain.Message, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if msg.ClientToken != nil {
		for _, existing := range r.s.messages[msg.MatchID] {
			if existing.SenderID == msg.SenderID && existing.ClientToken != nil && *existing.ClientToken == *msg.ClientToken {
				return copyMessage(existing), false, nil
			}
		}
	}

	match, ok := r.s.matches[msg.MatchID]
	if !ok {
		return nil, false, domain.ErrMatchNotFound
	}
	if !match.IsMutual() {
		return nil, false, domain.ErrMatchNotMutual
	}

	stored := copyMessage(msg)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	r.s.nextSeq++
	stored.Seq = r.s.nextSeq

	thread := r.s.messages[msg.MatchID]
	if n := len(thread); n > 0 && thread[n-1].CreatedAt.After(stored.CreatedAt) {
		stored.CreatedAt = thread[n-1].CreatedAt
	}
	r.s.messages[msg.MatchID] = append(thread, stored)

	msg.ID = stored.ID
	msg.Seq = stored.Seq
	msg.CreatedAt = stored.CreatedAt
	return copyMessage(stored), true, nil
}

func (r *messageRepository) ListByMatch(_ context.Context, matchID uuid.UUID, afterSeq int64, limit int) ([]*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Message{}
	for _, m := range r.s.messages[matchID] {
		if m.Seq <= afterSeq {
			continue
		}
		out = append(out, copyMessage(m))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *messageRepository) CountUnread(_ context.Context, matchID, recipientID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, m := range r.s.messages[matchID] {
		if m.SenderID != recipientID && !m.Read {
			count++
		}
	}
	return count, nil
}

func (r *messageRepository) ThreadStats(_ context.Context, matchIDs []uuid.UUID, readerID uuid.UUID) (map[uuid.UUID]repository.ThreadStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[uuid.UUID]repository.ThreadStats, len(matchIDs))
	for _, id := range matchIDs {
		thread := r.s.messages[id]
		if len(thread) == 0 {
			continue
		}
		stats := repository.ThreadStats{Latest: copyMessage(thread[len(thread)-1])}
		for _, m := range thread {
			if m.SenderID != readerID && !m.Read {
				stats.Unread++
			}
		}
		out[id] = stats
	}
	return out, nil
}

func (r *messageRepository) MarkRead(_ context.Context, matchID, readerID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var changed int64
	for _, m := range r.s.messages[matchID] {
		if m.SenderID != readerID && !m.Read {
			m.Read = true
			changed++
		}
	}
	return changed, nil
}

package repository

import (
	"context"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/google/uuid"
)

// ThreadStats is the inbox view of one match for one reader.
type ThreadStats struct {
	Latest *domain.Message
	Unread int
}

type MessageRepository interface {
	// Create appends msg and fills ID and Seq. The insert is refused with
	// domain.ErrMatchNotMutual unless the match is mutual at that moment.
	// CreatedAt is raised to the thread's latest timestamp when it is older,
	// so seq order and created_at order always agree. When msg carries a
	// client token already used by the same sender on the same match, the
	// stored message is returned with created=false.
	Create(ctx context.Context, msg *domain.Message) (stored *domain.Message, created bool, err error)
	// ListByMatch returns messages with seq > afterSeq in ascending seq order.
	// A limit of 0 returns everything.
	ListByMatch(ctx context.Context, matchID uuid.UUID, afterSeq int64, limit int) ([]*domain.Message, error)
	CountUnread(ctx context.Context, matchID, recipientID uuid.UUID) (int, error)
	// ThreadStats returns the latest message and the unread count for readerID
	// of every listed match in one read. Matches without messages are omitted.
	ThreadStats(ctx context.Context, matchIDs []uuid.UUID, readerID uuid.UUID) (map[uuid.UUID]ThreadStats, error)
	// MarkRead flags every message not sent by readerID as read and returns
	// the number of rows changed.
	MarkRead(ctx context.Context, matchID, readerID uuid.UUID) (int64, error)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const messageColumns = `id, seq, match_id, sender_id, content, read, client_token, created_at`

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, bool, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	var (
		stored  *domain.Message
		created bool
	)
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// The match row lock orders sends against withdraw and decline, and
		// against each other, so seq follows commit order within a thread.
		var status domain.MatchStatus
		lock := `SELECT status FROM matches WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &status, lock, msg.MatchID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrMatchNotFound
			}
			return fmt.Errorf("lock match: %w", err)
		}

		if msg.ClientToken != nil {
			var existing domain.Message
			lookup := `SELECT ` + messageColumns + ` FROM messages
				WHERE match_id = $1 AND sender_id = $2 AND client_token = $3`
			err := tx.GetContext(ctx, &existing, lookup, msg.MatchID, msg.SenderID, *msg.ClientToken)
			if err == nil {
				stored = &existing
				return nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("load deduplicated message: %w", err)
			}
		}

		if status != domain.MatchMutual {
			return domain.ErrMatchNotMutual
		}

		insert := `
			INSERT INTO messages (id, match_id, sender_id, content, read, client_token, created_at)
			VALUES ($1, $2, $3, $4, $5, $6,
				GREATEST($7, COALESCE((SELECT MAX(created_at) FROM messages WHERE match_id = $2), $7)))
			RETURNING seq, created_at
		`
		err := tx.QueryRowContext(ctx, insert,
			msg.ID, msg.MatchID, msg.SenderID, msg.Content, msg.Read, msg.ClientToken, msg.CreatedAt,
		).Scan(&msg.Seq, &msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		stored, created = msg, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (r *messageRepository) ListByMatch(ctx context.Context, matchID uuid.UUID, afterSeq int64, limit int) ([]*domain.Message, error) {
	messages := []*domain.Message{}
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE match_id = $1 AND seq > $2
		ORDER BY seq ASC
	`
	args := []interface{}{matchID, afterSeq}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	err := r.db.SelectContext(ctx, &messages, query, args...)
	return messages, err
}

func (r *messageRepository) CountUnread(ctx context.Context, matchID, recipientID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE match_id = $1 AND sender_id <> $2 AND read = false`
	err := r.db.GetContext(ctx, &count, query, matchID, recipientID)
	return count, err
}

func (r *messageRepository) ThreadStats(ctx context.Context, matchIDs []uuid.UUID, readerID uuid.UUID) (map[uuid.UUID]repository.ThreadStats, error) {
	out := make(map[uuid.UUID]repository.ThreadStats, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(matchIDs))
	for _, id := range matchIDs {
		ids = append(ids, id.String())
	}

	var rows []struct {
		domain.Message
		Unread int `db:"unread"`
	}
	query := `
		SELECT DISTINCT ON (m.match_id) m.id, m.seq, m.match_id, m.sender_id, m.content, m.read,
			m.client_token, m.created_at,
			COUNT(*) FILTER (WHERE m.sender_id <> $2 AND NOT m.read) OVER (PARTITION BY m.match_id) AS unread
		FROM messages m
		WHERE m.match_id = ANY($1::uuid[])
		ORDER BY m.match_id, m.seq DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids), readerID); err != nil {
		return nil, err
	}
	for i := range rows {
		latest := rows[i].Message
		out[latest.MatchID] = repository.ThreadStats{Latest: &latest, Unread: rows[i].Unread}
	}
	return out, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, matchID, readerID uuid.UUID) (int64, error) {
	query := `UPDATE messages SET read = true WHERE match_id = $1 AND sender_id <> $2 AND read = false`
	result, err := r.db.ExecContext(ctx, query, matchID, readerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

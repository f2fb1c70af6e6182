package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const matchColumns = `id, event_id, user_id_1, user_id_2, user_1_interested, user_2_interested,
	status, icebreakers, created_at, mutual_at`

type matchRow struct {
	domain.Match
	IcebreakerList pq.StringArray `db:"icebreakers"`
}

func (r *matchRow) toDomain() *domain.Match {
	m := r.Match
	m.Icebreakers = []string(r.IcebreakerList)
	return &m
}

func toMatches(rows []*matchRow) []*domain.Match {
	matches := make([]*domain.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, row.toDomain())
	}
	return matches
}

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

// UpsertInterest inserts the pending row if the pair has none; a conflicting
// insert waits on the unique index, after which the row is locked and the
// transition is applied, so racing calls from both sides converge.
func (r *matchRepository) UpsertInterest(ctx context.Context, eventID, fromUser, towardUser uuid.UUID, now time.Time) (*domain.Match, bool, error) {
	var (
		result       *domain.Match
		becameMutual bool
	)
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		fresh := domain.NewMatch(eventID, fromUser, towardUser, now)
		insert := `
			INSERT INTO matches (id, event_id, user_id_1, user_id_2, user_1_interested, user_2_interested, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (event_id, user_id_1, user_id_2) DO NOTHING
		`
		res, err := tx.ExecContext(ctx, insert,
			fresh.ID, fresh.EventID, fresh.UserID1, fresh.UserID2,
			fresh.User1Interested, fresh.User2Interested, fresh.Status, fresh.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			result = fresh
			return nil
		}

		m, err := lockMatch(ctx, tx, eventID, fromUser, towardUser)
		if err != nil {
			return err
		}
		becameMutual, err = m.ApplyInterest(fromUser, now)
		if err != nil {
			result = m
			return err
		}
		if err := saveMatchState(ctx, tx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return result, false, err
	}
	return result, becameMutual, nil
}

func (r *matchRepository) Withdraw(ctx context.Context, eventID, fromUser, towardUser uuid.UUID) (*domain.Match, error) {
	return r.mutate(ctx, eventID, fromUser, towardUser, func(m *domain.Match) error {
		return m.ApplyWithdraw(fromUser)
	})
}

func (r *matchRepository) Decline(ctx context.Context, eventID, fromUser, towardUser uuid.UUID) (*domain.Match, error) {
	return r.mutate(ctx, eventID, fromUser, towardUser, func(m *domain.Match) error {
		return m.ApplyDecline(fromUser)
	})
}

func (r *matchRepository) mutate(ctx context.Context, eventID, a, b uuid.UUID, apply func(*domain.Match) error) (*domain.Match, error) {
	var result *domain.Match
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		m, err := lockMatch(ctx, tx, eventID, a, b)
		if err != nil {
			return err
		}
		if err := apply(m); err != nil {
			return err
		}
		if err := saveMatchState(ctx, tx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	return result, err
}

func lockMatch(ctx context.Context, tx *sqlx.Tx, eventID, a, b uuid.UUID) (*domain.Match, error) {
	u1, u2 := domain.OrderPair(a, b)
	var row matchRow
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE event_id = $1 AND user_id_1 = $2 AND user_id_2 = $3
		FOR UPDATE`
	if err := tx.GetContext(ctx, &row, query, eventID, u1, u2); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, fmt.Errorf("lock match: %w", err)
	}
	return row.toDomain(), nil
}

func saveMatchState(ctx context.Context, tx *sqlx.Tx, m *domain.Match) error {
	query := `
		UPDATE matches
		SET user_1_interested = $1, user_2_interested = $2, status = $3, mutual_at = $4
		WHERE id = $5
	`
	_, err := tx.ExecContext(ctx, query, m.User1Interested, m.User2Interested, m.Status, m.MutualAt, m.ID)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	var row matchRow
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *matchRepository) GetByUsers(ctx context.Context, eventID, user1ID, user2ID uuid.UUID) (*domain.Match, error) {
	user1ID, user2ID = domain.OrderPair(user1ID, user2ID)

	var row matchRow
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE event_id = $1 AND user_id_1 = $2 AND user_id_2 = $3`
	err := r.db.GetContext(ctx, &row, query, eventID, user1ID, user2ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *matchRepository) ListMutual(ctx context.Context, userID uuid.UUID) ([]*domain.Match, error) {
	var rows []*matchRow
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE (user_id_1 = $1 OR user_id_2 = $1) AND status = 'mutual'
		ORDER BY mutual_at DESC, created_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return toMatches(rows), nil
}

const awaitingResponseFilter = `
	status = 'pending' AND (
		(user_id_1 = $1 AND user_2_interested AND NOT user_1_interested) OR
		(user_id_2 = $1 AND user_1_interested AND NOT user_2_interested)
	)
`

func (r *matchRepository) ListAwaitingResponse(ctx context.Context, userID uuid.UUID) ([]*domain.Match, error) {
	var rows []*matchRow
	query := `SELECT ` + matchColumns + ` FROM matches WHERE ` + awaitingResponseFilter + ` ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return toMatches(rows), nil
}

func (r *matchRepository) CountAwaitingResponse(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM matches WHERE ` + awaitingResponseFilter
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

func (r *matchRepository) ListByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) ([]*domain.Match, error) {
	var rows []*matchRow
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE event_id = $1 AND (user_id_1 = $2 OR user_id_2 = $2)
	`
	if err := r.db.SelectContext(ctx, &rows, query, eventID, userID); err != nil {
		return nil, err
	}
	return toMatches(rows), nil
}

func (r *matchRepository) UpdateIcebreakers(ctx context.Context, matchID uuid.UUID, icebreakers []string) error {
	query := `UPDATE matches SET icebreakers = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, pq.Array(icebreakers), matchID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

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

const eventColumns = `id, title, description, date, location, capacity, registered_count,
	price, image_url, organizer_id, status, created_at, updated_at`

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var event domain.Event
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	err := r.db.GetContext(ctx, &event, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Event, error) {
	events := make(map[uuid.UUID]*domain.Event, len(ids))
	if len(ids) == 0 {
		return events, nil
	}

	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}

	var rows []*domain.Event
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(strIDs)); err != nil {
		return nil, err
	}
	for _, e := range rows {
		events[e.ID] = e
	}
	return events, nil
}

func (r *eventRepository) ListByStatus(ctx context.Context, status domain.EventStatus, limit int) ([]*domain.Event, error) {
	events := []*domain.Event{}
	query := `
		SELECT ` + eventColumns + ` FROM events
		WHERE status = $1
		ORDER BY date ASC
		LIMIT $2
	`
	err := r.db.SelectContext(ctx, &events, query, status, limit)
	return events, err
}

type registrationRepository struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) repository.RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Get(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	var reg domain.Registration
	query := `SELECT id, user_id, event_id, status, created_at FROM registrations WHERE event_id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &reg, query, eventID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// Register claims a seat and records the registration in one transaction.
// A cancelled registration is re-activated rather than duplicated.
func (r *registrationRepository) Register(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	var reg domain.Registration
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var status string
		err := tx.GetContext(ctx, &status,
			`SELECT status FROM registrations WHERE event_id = $1 AND user_id = $2 FOR UPDATE`, eventID, userID)
		switch {
		case err == nil && status != string(domain.RegistrationCancelled):
			return domain.ErrAlreadyRegistered
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check registration: %w", err)
		}

		claim := `
			UPDATE events
			SET registered_count = registered_count + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1 AND status = 'upcoming' AND registered_count < capacity
		`
		res, err := tx.ExecContext(ctx, claim, eventID)
		if err != nil {
			return fmt.Errorf("claim seat: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return classifyClaimFailure(ctx, tx, eventID)
		}

		upsert := `
			INSERT INTO registrations (id, user_id, event_id, status)
			VALUES ($1, $2, $3, 'registered')
			ON CONFLICT (user_id, event_id) DO UPDATE SET status = 'registered'
			RETURNING id, user_id, event_id, status, created_at
		`
		return tx.GetContext(ctx, &reg, upsert, uuid.New(), userID, eventID)
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func classifyClaimFailure(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) error {
	var event domain.Event
	err := tx.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		return err
	}
	if event.Status != domain.EventUpcoming {
		return domain.ErrEventNotOpen
	}
	return domain.ErrEventFull
}

func (r *registrationRepository) Cancel(ctx context.Context, eventID, userID uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		cancel := `
			UPDATE registrations SET status = 'cancelled'
			WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'
		`
		res, err := tx.ExecContext(ctx, cancel, eventID, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrRegistrationNotFound
		}
		release := `
			UPDATE events
			SET registered_count = GREATEST(registered_count - 1, 0), updated_at = CURRENT_TIMESTAMP
			WHERE id = $1
		`
		_, err = tx.ExecContext(ctx, release, eventID)
		return err
	})
}

func (r *registrationRepository) ListActiveByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.Registration, error) {
	regs := []*domain.Registration{}
	query := `
		SELECT id, user_id, event_id, status, created_at FROM registrations
		WHERE event_id = $1 AND status IN ('registered', 'checked_in')
		ORDER BY created_at ASC
	`
	err := r.db.SelectContext(ctx, &regs, query, eventID)
	return regs, err
}

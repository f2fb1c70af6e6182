package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const profileColumns = `id, user_id, full_name, bio, avatar_url, date_of_birth, gender,
	interests, looking_for, location, created_at, updated_at`

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var profile domain.Profile
	err := row.Scan(
		&profile.ID, &profile.UserID, &profile.FullName, &profile.Bio, &profile.AvatarURL,
		&profile.DateOfBirth, &profile.Gender,
		pq.Array(&profile.Interests), pq.Array(&profile.LookingFor),
		&profile.Location, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	query := `
		INSERT INTO profiles (
			id, user_id, full_name, bio, avatar_url, date_of_birth, gender,
			interests, looking_for, location
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		profile.ID, profile.UserID, profile.FullName, profile.Bio, profile.AvatarURL,
		profile.DateOfBirth, profile.Gender,
		pq.Array(profile.Interests), pq.Array(profile.LookingFor), profile.Location,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProfileAlreadyExists
	}
	return err
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (r *profileRepository) GetByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.Profile, error) {
	profiles := make(map[uuid.UUID]*domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles[profile.UserID] = profile
	}
	return profiles, rows.Err()
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $1, bio = $2, avatar_url = $3, date_of_birth = $4, gender = $5,
		    interests = $6, looking_for = $7, location = $8,
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $9
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		profile.FullName, profile.Bio, profile.AvatarURL, profile.DateOfBirth, profile.Gender,
		pq.Array(profile.Interests), pq.Array(profile.LookingFor), profile.Location,
		profile.UserID,
	).Scan(&profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProfileNotFound
	}
	return err
}

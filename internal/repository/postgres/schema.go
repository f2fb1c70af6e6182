package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	bio TEXT CHECK (char_length(bio) <= 500),
	avatar_url TEXT,
	date_of_birth DATE NOT NULL,
	gender TEXT NOT NULL,
	interests TEXT[] NOT NULL DEFAULT '{}',
	looking_for TEXT[] NOT NULL DEFAULT '{}',
	location TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	date TIMESTAMPTZ NOT NULL,
	location TEXT NOT NULL,
	capacity INTEGER NOT NULL CHECK (capacity > 0),
	registered_count INTEGER NOT NULL DEFAULT 0,
	price NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
	image_url TEXT,
	organizer_id UUID NOT NULL,
	status TEXT NOT NULL DEFAULT 'upcoming'
		CHECK (status IN ('upcoming', 'ongoing', 'completed', 'cancelled')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (registered_count >= 0 AND registered_count <= capacity)
);
CREATE INDEX IF NOT EXISTS idx_events_status_date ON events (status, date);

CREATE TABLE IF NOT EXISTS registrations (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	event_id UUID NOT NULL REFERENCES events(id),
	status TEXT NOT NULL DEFAULT 'registered'
		CHECK (status IN ('registered', 'checked_in', 'cancelled')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, event_id)
);
CREATE INDEX IF NOT EXISTS idx_registrations_event ON registrations (event_id, status);

CREATE TABLE IF NOT EXISTS matches (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id),
	user_id_1 UUID NOT NULL,
	user_id_2 UUID NOT NULL,
	user_1_interested BOOLEAN NOT NULL DEFAULT false,
	user_2_interested BOOLEAN NOT NULL DEFAULT false,
	status TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'mutual', 'declined')),
	icebreakers TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	mutual_at TIMESTAMPTZ,
	CHECK (user_id_1 < user_id_2),
	UNIQUE (event_id, user_id_1, user_id_2)
);
CREATE INDEX IF NOT EXISTS idx_matches_user1 ON matches (user_id_1, status);
CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches (user_id_2, status);

CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY,
	seq BIGSERIAL UNIQUE,
	match_id UUID NOT NULL REFERENCES matches(id),
	sender_id UUID NOT NULL,
	content TEXT NOT NULL CHECK (char_length(btrim(content)) > 0),
	read BOOLEAN NOT NULL DEFAULT false,
	client_token TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_messages_match_seq ON messages (match_id, seq);
CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages (match_id, sender_id) WHERE read = false;
CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_client_token
	ON messages (match_id, sender_id, client_token) WHERE client_token IS NOT NULL;
`

// Migrate creates the tables this service owns if they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

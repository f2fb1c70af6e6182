package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/google/uuid"
)

// MatchRepository persists matches. Interest mutations must be atomic per
// unordered (event, user pair): concurrent calls from both sides converge on
// a single row.
type MatchRepository interface {
	// UpsertInterest creates the pending row or sets fromUser's flag on the
	// existing one. becameMutual is true only for the call that caused the
	// transition into mutual.
	UpsertInterest(ctx context.Context, eventID, fromUser, towardUser uuid.UUID, now time.Time) (match *domain.Match, becameMutual bool, err error)
	Withdraw(ctx context.Context, eventID, fromUser, towardUser uuid.UUID) (*domain.Match, error)
	Decline(ctx context.Context, eventID, fromUser, towardUser uuid.UUID) (*domain.Match, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	GetByUsers(ctx context.Context, eventID, user1ID, user2ID uuid.UUID) (*domain.Match, error)
	// ListMutual returns mutual matches of userID, most recently formed first.
	ListMutual(ctx context.Context, userID uuid.UUID) ([]*domain.Match, error)
	// ListAwaitingResponse returns pending matches where the counterpart is
	// interested and userID has not responded.
	ListAwaitingResponse(ctx context.Context, userID uuid.UUID) ([]*domain.Match, error)
	CountAwaitingResponse(ctx context.Context, userID uuid.UUID) (int, error)
	ListByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) ([]*domain.Match, error)
	UpdateIcebreakers(ctx context.Context, matchID uuid.UUID, icebreakers []string) error
}

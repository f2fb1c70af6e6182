package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

// Notifier tells both participants that a mutual match has formed.
type Notifier interface {
	NotifyMatch(ctx context.Context, match *domain.Match) error
}

// IcebreakerGenerator suggests opening lines from two interest sets.
type IcebreakerGenerator interface {
	GenerateIcebreakers(ctx context.Context, user1Interests, user2Interests []string) ([]string, error)
}

type MatchUseCase struct {
	matchRepo        repository.MatchRepository
	registrationRepo repository.RegistrationRepository
	profileRepo      repository.ProfileRepository
	eventRepo        repository.EventRepository
	notifier         Notifier
	icebreakers      IcebreakerGenerator
	now              func() time.Time
}

// NewMatchUseCase wires the resolver. notifier and icebreakers may be nil.
func NewMatchUseCase(
	matchRepo repository.MatchRepository,
	registrationRepo repository.RegistrationRepository,
	profileRepo repository.ProfileRepository,
	eventRepo repository.EventRepository,
	notifier Notifier,
	icebreakers IcebreakerGenerator,
) *MatchUseCase {
	return &MatchUseCase{
		matchRepo:        matchRepo,
		registrationRepo: registrationRepo,
		profileRepo:      profileRepo,
		eventRepo:        eventRepo,
		notifier:         notifier,
		icebreakers:      icebreakers,
		now:              time.Now,
	}
}

// InterestResult is returned by ExpressInterest
type InterestResult struct {
	Match        *domain.Match      `json:"match"`
	Status       domain.MatchStatus `json:"status"`
	BecameMutual bool               `json:"became_mutual"`
}

// ExpressInterest records that fromUser wants to meet towardUser at eventID.
// Repeating the call is harmless; BecameMutual is set only on the call that
// completed the pair.
func (uc *MatchUseCase) ExpressInterest(ctx context.Context, eventID, fromUser, towardUser uuid.UUID) (*InterestResult, error) {
	if err := checkPair(fromUser, towardUser); err != nil {
		return nil, err
	}
	if _, err := uc.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	if err := uc.requireAttendee(ctx, eventID, fromUser, domain.ErrNotRegistered); err != nil {
		return nil, err
	}
	if err := uc.requireAttendee(ctx, eventID, towardUser, domain.ErrCounterpartNotPresent); err != nil {
		return nil, err
	}

	match, becameMutual, err := uc.matchRepo.UpsertInterest(ctx, eventID, fromUser, towardUser, uc.now())
	if err != nil {
		return nil, err
	}

	if becameMutual {
		slog.Info("mutual match formed", "match_id", match.ID, "event_id", eventID)
		uc.onMutual(ctx, match)
	}

	return &InterestResult{
		Match:        match,
		Status:       match.Status,
		BecameMutual: becameMutual,
	}, nil
}

// WithdrawInterest clears fromUser's interest. A mutual match becomes declined.
func (uc *MatchUseCase) WithdrawInterest(ctx context.Context, eventID, fromUser, towardUser uuid.UUID) (*domain.Match, error) {
	if err := checkPair(fromUser, towardUser); err != nil {
		return nil, err
	}
	return uc.matchRepo.Withdraw(ctx, eventID, fromUser, towardUser)
}

// DeclineInterest rejects interest shown by towardUser.
func (uc *MatchUseCase) DeclineInterest(ctx context.Context, eventID, fromUser, towardUser uuid.UUID) (*domain.Match, error) {
	if err := checkPair(fromUser, towardUser); err != nil {
		return nil, err
	}
	return uc.matchRepo.Decline(ctx, eventID, fromUser, towardUser)
}

// GetMatch returns one match as seen by a participant.
func (uc *MatchUseCase) GetMatch(ctx context.Context, matchID, userID uuid.UUID) (*domain.MatchView, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasUser(userID) {
		return nil, domain.ErrNotParticipant
	}
	views, err := uc.resolveViews(ctx, userID, []*domain.Match{match})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListMutualMatches returns the user's mutual matches, newest first.
func (uc *MatchUseCase) ListMutualMatches(ctx context.Context, userID uuid.UUID) ([]*domain.MatchView, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	matches, err := uc.matchRepo.ListMutual(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mutual matches: %w", err)
	}
	return uc.resolveViews(ctx, userID, matches)
}

// PendingInterestCount counts attendees waiting on the user's answer.
func (uc *MatchUseCase) PendingInterestCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, domain.ErrUnauthorized
	}
	return uc.matchRepo.CountAwaitingResponse(ctx, userID)
}

// ListPendingInterests returns the attendees who are interested in the user
// and still waiting for a response.
func (uc *MatchUseCase) ListPendingInterests(ctx context.Context, userID uuid.UUID) ([]*domain.MatchView, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	matches, err := uc.matchRepo.ListAwaitingResponse(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending interests: %w", err)
	}
	return uc.resolveViews(ctx, userID, matches)
}

func checkPair(fromUser, towardUser uuid.UUID) error {
	if fromUser == uuid.Nil {
		return domain.ErrUnauthorized
	}
	if towardUser == uuid.Nil {
		return domain.ErrInvalidInput
	}
	if fromUser == towardUser {
		return domain.ErrSelfInterest
	}
	return nil
}

func (uc *MatchUseCase) requireAttendee(ctx context.Context, eventID, userID uuid.UUID, missing error) error {
	reg, err := uc.registrationRepo.Get(ctx, eventID, userID)
	if errors.Is(err, domain.ErrRegistrationNotFound) {
		return missing
	}
	if err != nil {
		return fmt.Errorf("failed to check registration: %w", err)
	}
	if !reg.IsActive() {
		return missing
	}
	return nil
}

// onMutual runs the side effects of a new match. Failures are logged only.
func (uc *MatchUseCase) onMutual(ctx context.Context, match *domain.Match) {
	if uc.icebreakers != nil {
		uc.attachIcebreakers(ctx, match)
	}
	if uc.notifier != nil {
		if err := uc.notifier.NotifyMatch(ctx, match); err != nil {
			slog.Warn("failed to publish match notification", "match_id", match.ID, "error", err)
		}
	}
}

func (uc *MatchUseCase) attachIcebreakers(ctx context.Context, match *domain.Match) {
	profiles, err := uc.profileRepo.GetByUserIDs(ctx, []uuid.UUID{match.UserID1, match.UserID2})
	if err != nil {
		slog.Warn("icebreakers skipped: profiles unavailable", "match_id", match.ID, "error", err)
		return
	}
	var interests1, interests2 []string
	if p, ok := profiles[match.UserID1]; ok {
		interests1 = p.Interests
	}
	if p, ok := profiles[match.UserID2]; ok {
		interests2 = p.Interests
	}

	lines, err := uc.icebreakers.GenerateIcebreakers(ctx, interests1, interests2)
	if err != nil || len(lines) == 0 {
		slog.Warn("icebreakers not generated", "match_id", match.ID, "error", err)
		return
	}
	if err := uc.matchRepo.UpdateIcebreakers(ctx, match.ID, lines); err != nil {
		slog.Warn("failed to store icebreakers", "match_id", match.ID, "error", err)
		return
	}
	match.Icebreakers = lines
}

// resolveViews attaches the counterpart profile and event title for viewer.
func (uc *MatchUseCase) resolveViews(ctx context.Context, viewer uuid.UUID, matches []*domain.Match) ([]*domain.MatchView, error) {
	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		if other, ok := m.OtherUserID(viewer); ok {
			ids = append(ids, other)
		}
	}
	profiles, err := uc.profileRepo.GetByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load counterpart profiles: %w", err)
	}

	now := uc.now()
	titles := make(map[uuid.UUID]string)
	views := make([]*domain.MatchView, 0, len(matches))
	for _, m := range matches {
		other, _ := m.OtherUserID(viewer)
		view := &domain.MatchView{Match: m}
		if p, ok := profiles[other]; ok {
			view.Counterpart = p.Summary(now)
		} else {
			view.Counterpart = &domain.ProfileSummary{UserID: other}
		}

		title, seen := titles[m.EventID]
		if !seen {
			if event, err := uc.eventRepo.GetByID(ctx, m.EventID); err == nil {
				title = event.Title
			}
			titles[m.EventID] = title
		}
		view.EventTitle = title
		views = append(views, view)
	}
	return views, nil
}

package feed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

type FeedUseCase struct {
	registrationRepo repository.RegistrationRepository
	profileRepo      repository.ProfileRepository
	matchRepo        repository.MatchRepository
	now              func() time.Time
}

func NewFeedUseCase(
	registrationRepo repository.RegistrationRepository,
	profileRepo repository.ProfileRepository,
	matchRepo repository.MatchRepository,
) *FeedUseCase {
	return &FeedUseCase{
		registrationRepo: registrationRepo,
		profileRepo:      profileRepo,
		matchRepo:        matchRepo,
		now:              time.Now,
	}
}

// AttendeeResponse represents another attendee in the event feed
type AttendeeResponse struct {
	*domain.ProfileSummary
	Gender             string `json:"gender"`
	CompatibilityScore int    `json:"compatibility_score"`
	InterestedInYou    bool   `json:"interested_in_you"`
}

// Attendees returns the other active attendees of an event the requester
// has not yet acted on, best matches first.
func (uc *FeedUseCase) Attendees(ctx context.Context, eventID, userID uuid.UUID) ([]*AttendeeResponse, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	reg, err := uc.registrationRepo.Get(ctx, eventID, userID)
	if errors.Is(err, domain.ErrRegistrationNotFound) || (err == nil && !reg.IsActive()) {
		return nil, domain.ErrNotAttendee
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}

	regs, err := uc.registrationRepo.ListActiveByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	matches, err := uc.matchRepo.ListByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	byOther := make(map[uuid.UUID]*domain.Match, len(matches))
	for _, m := range matches {
		if other, ok := m.OtherUserID(userID); ok {
			byOther[other] = m
		}
	}

	ids := make([]uuid.UUID, 0, len(regs)+1)
	ids = append(ids, userID)
	for _, r := range regs {
		if r.UserID == userID {
			continue
		}
		if m, ok := byOther[r.UserID]; ok && (m.IsInterested(userID) || m.Status == domain.MatchDeclined) {
			continue
		}
		ids = append(ids, r.UserID)
	}
	profiles, err := uc.profileRepo.GetByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	me := profiles[userID]

	now := uc.now()
	out := make([]*AttendeeResponse, 0, len(ids)-1)
	for _, id := range ids[1:] {
		candidate, ok := profiles[id]
		if !ok {
			// attendees who never finished profile setup are not listed
			continue
		}
		resp := &AttendeeResponse{
			ProfileSummary:     candidate.Summary(now),
			Gender:             candidate.Gender,
			CompatibilityScore: int(math.Round(compatibilityScore(me, candidate))),
		}
		if m, ok := byOther[id]; ok {
			resp.InterestedInYou = m.IsInterested(id)
		}
		out = append(out, resp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompatibilityScore > out[j].CompatibilityScore
	})
	return out, nil
}

// compatibilityScore calculates a 0-100 score: 60 points of shared interests
// (Jaccard index) and 40 points of mutual looking-for fit.
func compatibilityScore(me, candidate *domain.Profile) float64 {
	if me == nil {
		return 50
	}

	interestsScore := 0.0
	common := 0
	total := len(me.Interests) + len(candidate.Interests)
	if total > 0 {
		theirs := make(map[string]struct{}, len(candidate.Interests))
		for _, it := range candidate.Interests {
			theirs[it] = struct{}{}
		}
		for _, it := range me.Interests {
			if _, ok := theirs[it]; ok {
				common++
			}
		}
		if union := total - common; union > 0 {
			interestsScore = float64(common) / float64(union)
		}
	}

	fit := (lookingForFit(me.LookingFor, candidate.Gender) + lookingForFit(candidate.LookingFor, me.Gender)) / 2
	return interestsScore*60 + fit*40
}

// lookingForFit is 1 when gender is wanted, 0 when it is not and 0.5 when
// no preference is stated.
func lookingForFit(lookingFor []string, gender string) float64 {
	if len(lookingFor) == 0 || gender == "" {
		return 0.5
	}
	for _, want := range lookingFor {
		if want == gender || want == "any" {
			return 1
		}
	}
	return 0
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

const MaxBioLength = 500

type Profile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	FullName    string    `json:"full_name" db:"full_name"`
	Bio         *string   `json:"bio" db:"bio"`
	AvatarURL   *string   `json:"avatar_url" db:"avatar_url"`
	DateOfBirth time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender      string    `json:"gender" db:"gender"`
	Interests   []string  `json:"interests" db:"interests"`
	LookingFor  []string  `json:"looking_for" db:"looking_for"`
	Location    *string   `json:"location" db:"location"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Age returns the profile owner's age in whole years at the given instant.
func (p *Profile) Age(now time.Time) int {
	if p.DateOfBirth.IsZero() {
		return 0
	}
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ProfileSummary is the counterpart view embedded in match and conversation lists.
type ProfileSummary struct {
	UserID    uuid.UUID `json:"user_id"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	Age       int       `json:"age"`
	Bio       *string   `json:"bio,omitempty"`
	Location  *string   `json:"location,omitempty"`
	Interests []string  `json:"interests,omitempty"`
}

func (p *Profile) Summary(now time.Time) *ProfileSummary {
	return &ProfileSummary{
		UserID:    p.UserID,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Age:       p.Age(now),
		Bio:       p.Bio,
		Location:  p.Location,
		Interests: p.Interests,
	}
}

package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchMutual   MatchStatus = "mutual"
	MatchDeclined MatchStatus = "declined"
)

// Match records pairwise interest between two attendees of one event.
// UserID1 always sorts before UserID2 so an unordered pair maps to one row.
type Match struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	EventID         uuid.UUID   `json:"event_id" db:"event_id"`
	UserID1         uuid.UUID   `json:"user_id_1" db:"user_id_1"`
	UserID2         uuid.UUID   `json:"user_id_2" db:"user_id_2"`
	User1Interested bool        `json:"user_1_interested" db:"user_1_interested"`
	User2Interested bool        `json:"user_2_interested" db:"user_2_interested"`
	Status          MatchStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	MutualAt        *time.Time  `json:"mutual_at,omitempty" db:"mutual_at"`
	Icebreakers     []string    `json:"icebreakers,omitempty" db:"-"`
}

// OrderPair returns the two ids in storage order.
func OrderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// NewMatch builds the pending row created by the first expression of interest.
func NewMatch(eventID, fromUser, towardUser uuid.UUID, now time.Time) *Match {
	u1, u2 := OrderPair(fromUser, towardUser)
	m := &Match{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID1:   u1,
		UserID2:   u2,
		Status:    MatchPending,
		CreatedAt: now,
	}
	m.setInterest(fromUser, true)
	return m
}

func (m *Match) HasUser(userID uuid.UUID) bool {
	return m.UserID1 == userID || m.UserID2 == userID
}

// OtherUserID returns the counterpart of userID. It is the only place that
// decides which side of the pair "the other user" is.
func (m *Match) OtherUserID(userID uuid.UUID) (uuid.UUID, bool) {
	if m.UserID1 == userID {
		return m.UserID2, true
	}
	if m.UserID2 == userID {
		return m.UserID1, true
	}
	return uuid.Nil, false
}

// IsInterested reports the interest flag held by userID.
func (m *Match) IsInterested(userID uuid.UUID) bool {
	switch userID {
	case m.UserID1:
		return m.User1Interested
	case m.UserID2:
		return m.User2Interested
	}
	return false
}

func (m *Match) setInterest(userID uuid.UUID, v bool) {
	switch userID {
	case m.UserID1:
		m.User1Interested = v
	case m.UserID2:
		m.User2Interested = v
	}
}

func (m *Match) IsMutual() bool {
	return m.Status == MatchMutual
}

// AwaitingResponseFrom reports whether the counterpart has expressed interest
// and userID has neither reciprocated nor declined.
func (m *Match) AwaitingResponseFrom(userID uuid.UUID) bool {
	other, ok := m.OtherUserID(userID)
	if !ok || m.Status != MatchPending {
		return false
	}
	return m.IsInterested(other) && !m.IsInterested(userID)
}

// ApplyInterest sets fromUser's flag and recomputes the status. It returns
// true only when this call moved the match into mutual.
func (m *Match) ApplyInterest(fromUser uuid.UUID, now time.Time) (bool, error) {
	if !m.HasUser(fromUser) {
		return false, ErrNotParticipant
	}
	if m.Status == MatchDeclined {
		return false, ErrMatchDeclined
	}
	m.setInterest(fromUser, true)
	if m.User1Interested && m.User2Interested && m.Status != MatchMutual {
		m.Status = MatchMutual
		t := now
		m.MutualAt = &t
		return true, nil
	}
	return false, nil
}

// ApplyWithdraw clears fromUser's flag. A mutual match becomes declined;
// a pending one stays pending.
func (m *Match) ApplyWithdraw(fromUser uuid.UUID) error {
	if !m.HasUser(fromUser) {
		return ErrNotParticipant
	}
	m.setInterest(fromUser, false)
	if m.Status == MatchMutual {
		m.Status = MatchDeclined
	}
	return nil
}

// ApplyDecline records an explicit rejection by fromUser.
func (m *Match) ApplyDecline(fromUser uuid.UUID) error {
	if !m.HasUser(fromUser) {
		return ErrNotParticipant
	}
	switch m.Status {
	case MatchDeclined:
		m.setInterest(fromUser, false)
		return nil
	case MatchMutual:
		m.setInterest(fromUser, false)
		m.Status = MatchDeclined
		return nil
	}
	if !m.AwaitingResponseFrom(fromUser) {
		return ErrNothingToDecline
	}
	m.Status = MatchDeclined
	return nil
}

// MatchView is a match resolved for one viewer.
type MatchView struct {
	Match       *Match          `json:"match"`
	Counterpart *ProfileSummary `json:"counterpart"`
	EventTitle  string          `json:"event_title"`
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxMessageLength = 2000

type Message struct {
	ID          uuid.UUID `json:"id" db:"id"`
	MatchID     uuid.UUID `json:"match_id" db:"match_id"`
	SenderID    uuid.UUID `json:"sender_id" db:"sender_id"`
	Content     string    `json:"content" db:"content"`
	Read        bool      `json:"read" db:"read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Seq         int64     `json:"seq" db:"seq"`
	ClientToken *string   `json:"client_token,omitempty" db:"client_token"`
}

// NormalizeContent trims surrounding whitespace and enforces length limits.
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return content, nil
}

// ConversationSummary is one inbox entry for a viewer.
type ConversationSummary struct {
	MatchID     uuid.UUID       `json:"match_id"`
	EventID     uuid.UUID       `json:"event_id"`
	EventTitle  string          `json:"event_title"`
	Counterpart *ProfileSummary `json:"counterpart"`
	LastMessage *Message        `json:"last_message"`
	UnreadCount int             `json:"unread_count"`
	MutualAt    *time.Time      `json:"mutual_at,omitempty"`
}

package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/realtime"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type ConversationUseCase struct {
	matchRepo   repository.MatchRepository
	messageRepo repository.MessageRepository
	profileRepo repository.ProfileRepository
	eventRepo   repository.EventRepository
	broker      realtime.Broker
	now         func() time.Time
}

// NewConversationUseCase falls back to an in-process hub when broker is nil.
func NewConversationUseCase(
	matchRepo repository.MatchRepository,
	messageRepo repository.MessageRepository,
	profileRepo repository.ProfileRepository,
	eventRepo repository.EventRepository,
	broker realtime.Broker,
) *ConversationUseCase {
	if broker == nil {
		broker = realtime.NewHub(realtime.DefaultBuffer)
	}
	return &ConversationUseCase{
		matchRepo:   matchRepo,
		messageRepo: messageRepo,
		profileRepo: profileRepo,
		eventRepo:   eventRepo,
		broker:      broker,
		now:         time.Now,
	}
}

// SendMessageRequest represents a new chat message
type SendMessageRequest struct {
	Content     string `json:"content" binding:"required,max=2000"`
	ClientToken string `json:"client_token" binding:"omitempty,max=64"`
}

// SendMessage appends a message to a mutual match. A repeated clientToken
// from the same sender returns the message stored by the first attempt.
// The mutual status is enforced again by the store at insert time.
func (uc *ConversationUseCase) SendMessage(ctx context.Context, matchID, senderID uuid.UUID, content, clientToken string) (*domain.Message, error) {
	match, err := uc.participantMatch(ctx, matchID, senderID)
	if err != nil {
		return nil, err
	}
	if !match.IsMutual() {
		return nil, domain.ErrMatchNotMutual
	}
	content, err = domain.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:        uuid.New(),
		MatchID:   matchID,
		SenderID:  senderID,
		Content:   content,
		Read:      false,
		CreatedAt: uc.now(),
	}
	if clientToken != "" {
		msg.ClientToken = &clientToken
	}

	stored, created, err := uc.messageRepo.Create(ctx, msg)
	if err != nil {
		if domain.KindOf(err) != domain.KindInternal {
			return nil, err
		}
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	if !created {
		return stored, nil
	}

	if err := uc.broker.Publish(ctx, stored); err != nil {
		slog.Warn("failed to publish message", "match_id", matchID, "message_id", stored.ID, "error", err)
	}
	return stored, nil
}

// ListMessages returns the whole thread in seq order. It never marks
// anything read.
func (uc *ConversationUseCase) ListMessages(ctx context.Context, matchID, userID uuid.UUID) ([]*domain.Message, error) {
	if _, err := uc.participantMatch(ctx, matchID, userID); err != nil {
		return nil, err
	}
	return uc.messageRepo.ListByMatch(ctx, matchID, 0, 0)
}

// ListMessagesPage returns up to limit messages inserted after afterSeq.
// The seq of the last returned message is the cursor for the next page.
func (uc *ConversationUseCase) ListMessagesPage(ctx context.Context, matchID, userID uuid.UUID, afterSeq int64, limit int) ([]*domain.Message, error) {
	if _, err := uc.participantMatch(ctx, matchID, userID); err != nil {
		return nil, err
	}
	if afterSeq < 0 {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return uc.messageRepo.ListByMatch(ctx, matchID, afterSeq, limit)
}

// MarkRead flags the counterpart's messages as read and reports how many changed.
func (uc *ConversationUseCase) MarkRead(ctx context.Context, matchID, userID uuid.UUID) (int64, error) {
	if _, err := uc.participantMatch(ctx, matchID, userID); err != nil {
		return 0, err
	}
	return uc.messageRepo.MarkRead(ctx, matchID, userID)
}

// OpenConversation loads the thread and marks the counterpart's messages read.
func (uc *ConversationUseCase) OpenConversation(ctx context.Context, matchID, userID uuid.UUID) ([]*domain.Message, error) {
	msgs, err := uc.ListMessages(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.messageRepo.MarkRead(ctx, matchID, userID); err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	for _, m := range msgs {
		if m.SenderID != userID {
			m.Read = true
		}
	}
	return msgs, nil
}

// ListConversations returns one entry per mutual match. Conversations with
// recent messages come first; silent ones follow, newest match first.
func (uc *ConversationUseCase) ListConversations(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	matches, err := uc.matchRepo.ListMutual(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	matchIDs := make([]uuid.UUID, 0, len(matches))
	others := make([]uuid.UUID, 0, len(matches))
	eventIDs := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		other, _ := m.OtherUserID(userID)
		matchIDs = append(matchIDs, m.ID)
		others = append(others, other)
		eventIDs = append(eventIDs, m.EventID)
	}
	profiles, err := uc.profileRepo.GetByUserIDs(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	events, err := uc.eventRepo.GetByIDs(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	stats, err := uc.messageRepo.ThreadStats(ctx, matchIDs, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread stats: %w", err)
	}

	now := uc.now()
	out := make([]*domain.ConversationSummary, 0, len(matches))
	for _, m := range matches {
		other, _ := m.OtherUserID(userID)
		summary := &domain.ConversationSummary{
			MatchID:  m.ID,
			EventID:  m.EventID,
			MutualAt: m.MutualAt,
		}
		if p, ok := profiles[other]; ok {
			summary.Counterpart = p.Summary(now)
		} else {
			summary.Counterpart = &domain.ProfileSummary{UserID: other}
		}
		if e, ok := events[m.EventID]; ok {
			summary.EventTitle = e.Title
		}
		if st, ok := stats[m.ID]; ok {
			summary.LastMessage = st.Latest
			summary.UnreadCount = st.Unread
		}
		out = append(out, summary)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return conversationBefore(out[i], out[j])
	})
	return out, nil
}

func conversationBefore(a, b *domain.ConversationSummary) bool {
	switch {
	case a.LastMessage != nil && b.LastMessage != nil:
		if !a.LastMessage.CreatedAt.Equal(b.LastMessage.CreatedAt) {
			return a.LastMessage.CreatedAt.After(b.LastMessage.CreatedAt)
		}
		return a.LastMessage.Seq > b.LastMessage.Seq
	case a.LastMessage != nil:
		return true
	case b.LastMessage != nil:
		return false
	}
	if a.MutualAt == nil || b.MutualAt == nil {
		return a.MutualAt != nil
	}
	return a.MutualAt.After(*b.MutualAt)
}

// UnreadTotal sums unread messages across all of the user's conversations.
func (uc *ConversationUseCase) UnreadTotal(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, domain.ErrUnauthorized
	}
	matches, err := uc.matchRepo.ListMutual(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list matches: %w", err)
	}
	matchIDs := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		matchIDs = append(matchIDs, m.ID)
	}
	stats, err := uc.messageRepo.ThreadStats(ctx, matchIDs, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	total := 0
	for _, st := range stats {
		total += st.Unread
	}
	return total, nil
}

// Subscribe streams new messages of the match to a participant. The caller
// must Close the subscription.
func (uc *ConversationUseCase) Subscribe(ctx context.Context, matchID, userID uuid.UUID) (*realtime.Subscription, error) {
	if _, err := uc.participantMatch(ctx, matchID, userID); err != nil {
		return nil, err
	}
	return uc.broker.Subscribe(matchID), nil
}

func (uc *ConversationUseCase) participantMatch(ctx context.Context, matchID, userID uuid.UUID) (*domain.Match, error) {
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
	return match, nil
}

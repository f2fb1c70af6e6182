package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/realtime"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/gdugdh24/speeddate-backend/internal/repository/memory"
	"github.com/google/uuid"
)

type failingBroker struct {
	*realtime.Hub
}

func (failingBroker) Publish(context.Context, *domain.Message) error {
	return errors.New("broker unavailable")
}

type fixture struct {
	store   *memory.Store
	hub     *realtime.Hub
	uc      *ConversationUseCase
	eventID uuid.UUID
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	eventID := uuid.New()
	store.PutEvent(&domain.Event{ID: eventID, Title: "Wine & Words", Capacity: 10, Status: domain.EventUpcoming})
	hub := realtime.NewHub(8)
	f := &fixture{
		store:   store,
		hub:     hub,
		eventID: eventID,
		clock:   time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC),
	}
	f.uc = NewConversationUseCase(store.Matches(), store.Messages(), store.Profiles(), store.Events(), hub)
	f.uc.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func (f *fixture) match(t *testing.T, a, b uuid.UUID, mutual bool) *domain.Match {
	t.Helper()
	ctx := context.Background()
	f.clock = f.clock.Add(time.Minute)
	m, _, err := f.store.Matches().UpsertInterest(ctx, f.eventID, a, b, f.clock)
	if err != nil {
		t.Fatalf("UpsertInterest: %v", err)
	}
	if mutual {
		if m, _, err = f.store.Matches().UpsertInterest(ctx, f.eventID, b, a, f.clock); err != nil {
			t.Fatalf("UpsertInterest: %v", err)
		}
	}
	return m
}

func TestScenario_MessageUnreadThenRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	sent, err := f.uc.SendMessage(ctx, m.ID, a, "hi", "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sent.Read || sent.SenderID != a {
		t.Fatalf("unexpected message %+v", sent)
	}

	convs, err := f.uc.ListConversations(ctx, b)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected one conversation, got %d", len(convs))
	}
	if convs[0].UnreadCount != 1 || convs[0].LastMessage == nil || convs[0].LastMessage.Content != "hi" {
		t.Fatalf("unexpected summary %+v", convs[0])
	}
	if convs[0].Counterpart.UserID != a || convs[0].EventTitle != "Wine & Words" {
		t.Fatalf("counterpart or title not resolved: %+v", convs[0])
	}

	changed, err := f.uc.MarkRead(ctx, m.ID, b)
	if err != nil || changed != 1 {
		t.Fatalf("MarkRead: %d %v", changed, err)
	}
	if again, _ := f.uc.MarkRead(ctx, m.ID, b); again != 0 {
		t.Fatalf("MarkRead should be idempotent, changed %d", again)
	}
	convs, _ = f.uc.ListConversations(ctx, b)
	if convs[0].UnreadCount != 0 {
		t.Fatalf("expected unread 0 after MarkRead, got %d", convs[0].UnreadCount)
	}

	// the sender's own message never counts as unread for them
	if n, _ := f.uc.UnreadTotal(ctx, a); n != 0 {
		t.Fatalf("sender unread total should be 0, got %d", n)
	}
}

func TestSendMessage_RequiresMutualMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, false)

	_, err := f.uc.SendMessage(ctx, m.ID, a, "hello?", "")
	if !errors.Is(err, domain.ErrMatchNotMutual) || domain.KindOf(err) != domain.KindState {
		t.Fatalf("expected state error, got %v", err)
	}
	msgs, _ := f.store.Messages().ListByMatch(ctx, m.ID, 0, 0)
	if len(msgs) != 0 {
		t.Fatalf("no message should be stored, got %d", len(msgs))
	}

	declined, err := f.store.Matches().Decline(ctx, f.eventID, b, a)
	if err != nil || declined.Status != domain.MatchDeclined {
		t.Fatalf("Decline: %+v %v", declined, err)
	}
	if _, err := f.uc.SendMessage(ctx, m.ID, a, "still there?", ""); !errors.Is(err, domain.ErrMatchNotMutual) {
		t.Fatalf("expected state error on declined match, got %v", err)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, outsider := uuid.New(), uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	tests := []struct {
		name    string
		sender  uuid.UUID
		content string
		wantErr error
	}{
		{"blank content", a, "   \n\t", domain.ErrEmptyMessage},
		{"outsider", outsider, "hey", domain.ErrNotParticipant},
		{"unauthenticated", uuid.Nil, "hey", domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.uc.SendMessage(ctx, m.ID, tt.sender, tt.content, ""); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := f.uc.SendMessage(ctx, uuid.New(), a, "hey", ""); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestSendMessage_RoundTripAndOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	lines := []struct {
		from    uuid.UUID
		content string
	}{
		{a, "hi"},
		{b, "  hello there  "},
		{a, "how was the event?"},
	}
	for _, l := range lines {
		if _, err := f.uc.SendMessage(ctx, m.ID, l.from, l.content, ""); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	msgs, err := f.uc.ListMessages(ctx, m.ID, b)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	want := []string{"hi", "hello there", "how was the event?"}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(msgs))
	}
	for i, msg := range msgs {
		if msg.Content != want[i] || msg.SenderID != lines[i].from {
			t.Fatalf("position %d: got %q from %s", i, msg.Content, msg.SenderID)
		}
		if i > 0 && msg.CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("messages out of order at %d", i)
		}
	}

	page, err := f.uc.ListMessagesPage(ctx, m.ID, a, msgs[0].Seq, 1)
	if err != nil || len(page) != 1 || page[0].ID != msgs[1].ID {
		t.Fatalf("unexpected page %+v (%v)", page, err)
	}
	if _, err := f.uc.ListMessages(ctx, m.ID, uuid.New()); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestSendMessage_ClientTokenDeduplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	sub, err := f.uc.Subscribe(ctx, m.ID, b)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	first, err := f.uc.SendMessage(ctx, m.ID, a, "see you saturday", "tok-1")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	retry, err := f.uc.SendMessage(ctx, m.ID, a, "see you saturday", "tok-1")
	if err != nil {
		t.Fatalf("retry SendMessage: %v", err)
	}
	if retry.ID != first.ID {
		t.Fatalf("retry created a duplicate")
	}
	msgs, _ := f.uc.ListMessages(ctx, m.ID, a)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}

	<-sub.Messages()
	select {
	case dup := <-sub.Messages():
		t.Fatalf("retry was published again: %+v", dup)
	default:
	}
}

func TestSubscribe_ReceivesNewMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	if _, err := f.uc.Subscribe(ctx, m.ID, uuid.New()); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	sub, err := f.uc.Subscribe(ctx, m.ID, b)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	sent, _ := f.uc.SendMessage(ctx, m.ID, a, "ping", "")

	select {
	case got := <-sub.Messages():
		if got.ID != sent.ID || got.Content != "ping" {
			t.Fatalf("unexpected delivery %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("message not delivered")
	}

	sub.Close()
	if f.hub.SubscriberCount(m.ID) != 0 {
		t.Fatalf("subscription not released")
	}
	// closing the subscription loses nothing that was persisted
	if _, err := f.uc.SendMessage(ctx, m.ID, a, "after close", ""); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	msgs, _ := f.uc.ListMessages(ctx, m.ID, b)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
}

func TestSendMessage_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.uc.broker = failingBroker{Hub: f.hub}
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	if _, err := f.uc.SendMessage(ctx, m.ID, a, "hi", ""); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
	msgs, _ := f.uc.ListMessages(ctx, m.ID, b)
	if len(msgs) != 1 {
		t.Fatalf("message should still be stored")
	}
}

func TestOpenConversation_MarksCounterpartMessagesRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	f.uc.SendMessage(ctx, m.ID, a, "one", "")
	f.uc.SendMessage(ctx, m.ID, a, "two", "")
	f.uc.SendMessage(ctx, m.ID, b, "three", "")

	msgs, err := f.uc.OpenConversation(ctx, m.ID, b)
	if err != nil {
		t.Fatalf("OpenConversation: %v", err)
	}
	for _, msg := range msgs {
		if msg.SenderID == a && !msg.Read {
			t.Fatalf("counterpart message left unread: %+v", msg)
		}
	}
	if n, _ := f.uc.UnreadTotal(ctx, b); n != 0 {
		t.Fatalf("expected nothing unread for b, got %d", n)
	}
	if n, _ := f.uc.UnreadTotal(ctx, a); n != 1 {
		t.Fatalf("expected one unread for a, got %d", n)
	}
}

func TestListConversations_Ordering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	me, old, quiet, chatty := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	oldMatch := f.match(t, me, old, true)
	f.match(t, me, quiet, true)
	chattyMatch := f.match(t, me, chatty, true)
	f.match(t, me, uuid.New(), false)

	f.uc.SendMessage(ctx, chattyMatch.ID, chatty, "first", "")
	f.uc.SendMessage(ctx, oldMatch.ID, old, "latest", "")

	convs, err := f.uc.ListConversations(ctx, me)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	got := make([]uuid.UUID, 0, len(convs))
	for _, c := range convs {
		got = append(got, c.Counterpart.UserID)
	}
	want := []uuid.UUID{old, chatty, quiet}
	if len(got) != len(want) {
		t.Fatalf("expected %d conversations, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got[i], want[i])
		}
	}
	if convs[2].LastMessage != nil {
		t.Fatalf("quiet conversation should have no last message")
	}
}

// withdrawAfterRead withdraws the interest right after the use case has
// loaded the match, so the withdrawal lands between the read and the insert.
type withdrawAfterRead struct {
	repository.MatchRepository
	withdraw func()
}

func (w *withdrawAfterRead) GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	m, err := w.MatchRepository.GetByID(ctx, id)
	if err == nil && w.withdraw != nil {
		w.withdraw()
		w.withdraw = nil
	}
	return m, err
}

func TestSendMessage_WithdrawnDuringSendIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	matches := &withdrawAfterRead{
		MatchRepository: f.store.Matches(),
		withdraw: func() {
			if _, err := f.store.Matches().Withdraw(ctx, f.eventID, b, a); err != nil {
				t.Errorf("Withdraw: %v", err)
			}
		},
	}
	uc := NewConversationUseCase(matches, f.store.Messages(), f.store.Profiles(), f.store.Events(), f.hub)

	if _, err := uc.SendMessage(ctx, m.ID, a, "are you still there?", ""); !errors.Is(err, domain.ErrMatchNotMutual) {
		t.Fatalf("expected ErrMatchNotMutual, got %v", err)
	}
	current, _ := f.store.Matches().GetByID(ctx, m.ID)
	if current.Status != domain.MatchDeclined {
		t.Fatalf("expected declined match, got %s", current.Status)
	}
	if msgs, _ := f.store.Messages().ListByMatch(ctx, m.ID, 0, 0); len(msgs) != 0 {
		t.Fatalf("no message may exist on a declined match, got %d", len(msgs))
	}
}

func TestListMessages_DoesNotMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)
	for _, content := range []string{"one", "two"} {
		if _, err := f.uc.SendMessage(ctx, m.ID, a, content, ""); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	msgs, err := f.uc.ListMessages(ctx, m.ID, b)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("ListMessages: %d %v", len(msgs), err)
	}
	for _, msg := range msgs {
		if msg.Read {
			t.Fatalf("fetching must not mark messages read: %+v", msg)
		}
	}
	if _, err := f.uc.ListMessagesPage(ctx, m.ID, b, 0, 1); err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if n, _ := f.uc.UnreadTotal(ctx, b); n != 2 {
		t.Fatalf("expected unread total to stay 2, got %d", n)
	}
}

func TestListMessagesPage_ClockOutOfOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	m := f.match(t, a, b, true)

	base := f.clock
	offsets := []time.Duration{1, 3, 2}
	next := 0
	f.uc.now = func() time.Time {
		at := base.Add(offsets[next] * time.Second)
		next++
		return at
	}
	for _, content := range []string{"x", "y", "z"} {
		if _, err := f.uc.SendMessage(ctx, m.ID, a, content, ""); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	var paged []string
	var after int64
	for {
		page, err := f.uc.ListMessagesPage(ctx, m.ID, b, after, 2)
		if err != nil {
			t.Fatalf("ListMessagesPage: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, msg := range page {
			paged = append(paged, msg.Content)
		}
		after = page[len(page)-1].Seq
	}
	if len(paged) != 3 || paged[0] != "x" || paged[1] != "y" || paged[2] != "z" {
		t.Fatalf("paging lost or reordered messages: %v", paged)
	}

	full, _ := f.uc.ListMessages(ctx, m.ID, b)
	for i := 1; i < len(full); i++ {
		if full[i].Seq <= full[i-1].Seq || full[i].CreatedAt.Before(full[i-1].CreatedAt) {
			t.Fatalf("seq and created_at order disagree at %d: %+v %+v", i, full[i-1], full[i])
		}
	}
}

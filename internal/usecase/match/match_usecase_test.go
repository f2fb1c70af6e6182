package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository/memory"
	"github.com/google/uuid"
)

type fakeNotifier struct {
	mu      sync.Mutex
	matches []uuid.UUID
	err     error
}

func (f *fakeNotifier) NotifyMatch(_ context.Context, m *domain.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches = append(f.matches, m.ID)
	return f.err
}

type fakeIcebreakers struct {
	lines []string
	err   error
}

func (f *fakeIcebreakers) GenerateIcebreakers(_ context.Context, _, _ []string) ([]string, error) {
	return f.lines, f.err
}

type fixture struct {
	store    *memory.Store
	uc       *MatchUseCase
	notifier *fakeNotifier
	eventID  uuid.UUID
}

func newFixture(t *testing.T, attendees ...uuid.UUID) *fixture {
	t.Helper()
	store := memory.NewStore()
	eventID := uuid.New()
	store.PutEvent(&domain.Event{
		ID:       eventID,
		Title:    "Friday Speed Dating",
		Capacity: 10,
		Status:   domain.EventUpcoming,
		Date:     time.Now().Add(48 * time.Hour),
	})
	for _, id := range attendees {
		store.PutRegistration(&domain.Registration{UserID: id, EventID: eventID, Status: domain.RegistrationRegistered})
	}

	notifier := &fakeNotifier{}
	uc := NewMatchUseCase(
		store.Matches(),
		store.Registrations(),
		store.Profiles(),
		store.Events(),
		notifier,
		&fakeIcebreakers{lines: []string{"What brought you here tonight?"}},
	)
	return &fixture{store: store, uc: uc, notifier: notifier, eventID: eventID}
}

func TestExpressInterest_BecomesMutual(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	f := newFixture(t, a, b)

	first, err := f.uc.ExpressInterest(ctx, f.eventID, a, b)
	if err != nil {
		t.Fatalf("ExpressInterest(A,B): %v", err)
	}
	if first.Status != domain.MatchPending || first.BecameMutual {
		t.Fatalf("expected pending without transition, got %+v", first)
	}
	if !first.Match.IsInterested(a) || first.Match.IsInterested(b) {
		t.Fatalf("unexpected flags after first interest: %+v", first.Match)
	}

	second, err := f.uc.ExpressInterest(ctx, f.eventID, b, a)
	if err != nil {
		t.Fatalf("ExpressInterest(B,A): %v", err)
	}
	if second.Status != domain.MatchMutual || !second.BecameMutual {
		t.Fatalf("expected mutual transition, got %+v", second)
	}
	if second.Match.ID != first.Match.ID {
		t.Fatalf("expected the same match row")
	}
	if second.Match.MutualAt == nil {
		t.Fatalf("mutual_at not set")
	}
	if len(second.Match.Icebreakers) != 1 {
		t.Fatalf("expected icebreakers attached, got %v", second.Match.Icebreakers)
	}
	if len(f.notifier.matches) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.matches))
	}

	again, err := f.uc.ExpressInterest(ctx, f.eventID, a, b)
	if err != nil {
		t.Fatalf("repeat ExpressInterest: %v", err)
	}
	if again.BecameMutual || again.Status != domain.MatchMutual {
		t.Fatalf("repeat call must not report a new transition: %+v", again)
	}
}

func TestExpressInterest_Idempotent(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	f := newFixture(t, a, b)

	once, _ := f.uc.ExpressInterest(ctx, f.eventID, a, b)
	twice, err := f.uc.ExpressInterest(ctx, f.eventID, a, b)
	if err != nil {
		t.Fatalf("ExpressInterest: %v", err)
	}
	if once.Match.ID != twice.Match.ID || twice.Status != domain.MatchPending ||
		twice.Match.User1Interested != once.Match.User1Interested ||
		twice.Match.User2Interested != once.Match.User2Interested {
		t.Fatalf("second call changed state: %+v vs %+v", once.Match, twice.Match)
	}
}

func TestExpressInterest_Validation(t *testing.T) {
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	f := newFixture(t, a, b)

	tests := []struct {
		name     string
		from, to uuid.UUID
		wantErr  error
		wantKind domain.ErrorKind
	}{
		{"self", a, a, domain.ErrSelfInterest, domain.KindValidation},
		{"counterpart not registered", a, c, domain.ErrCounterpartNotPresent, domain.KindValidation},
		{"sender not registered", c, a, domain.ErrNotRegistered, domain.KindValidation},
		{"unauthenticated", uuid.Nil, a, domain.ErrUnauthorized, domain.KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.ExpressInterest(ctx, f.eventID, tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if domain.KindOf(err) != tt.wantKind {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, domain.KindOf(err))
			}
		})
	}

	if _, err := f.store.Matches().GetByUsers(ctx, f.eventID, a, c); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("no match should exist for an unregistered counterpart, got %v", err)
	}
}

func TestExpressInterest_CancelledRegistration(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	f := newFixture(t, a)
	f.store.PutRegistration(&domain.Registration{UserID: b, EventID: f.eventID, Status: domain.RegistrationCancelled})

	if _, err := f.uc.ExpressInterest(ctx, f.eventID, a, b); !errors.Is(err, domain.ErrCounterpartNotPresent) {
		t.Fatalf("expected ErrCounterpartNotPresent, got %v", err)
	}
}

func TestExpressInterest_ConcurrentFromBothSides(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	f := newFixture(t, a, b)

	var wg sync.WaitGroup
	results := make(chan *InterestResult, 2)
	for _, pair := range [][2]uuid.UUID{{a, b}, {b, a}} {
		wg.Add(1)
		go func(from, to uuid.UUID) {
			defer wg.Done()
			res, err := f.uc.ExpressInterest(ctx, f.eventID, from, to)
			if err != nil {
				t.Errorf("ExpressInterest: %v", err)
				return
			}
			results <- res
		}(pair[0], pair[1])
	}
	wg.Wait()
	close(results)

	transitions := 0
	for res := range results {
		if res.BecameMutual {
			transitions++
		}
	}
	if transitions != 1 {
		t.Fatalf("expected exactly one mutual transition, got %d", transitions)
	}
	if len(f.notifier.matches) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.matches))
	}
}

func TestExpressInterest_SideEffectFailuresAreIgnored(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	f := newFixture(t, a, b)
	f.uc.notifier = &fakeNotifier{err: errors.New("nats down")}
	f.uc.icebreakers = &fakeIcebreakers{err: errors.New("quota")}

	f.uc.ExpressInterest(ctx, f.eventID, a, b)
	res, err := f.uc.ExpressInterest(ctx, f.eventID, b, a)
	if err != nil {
		t.Fatalf("side effect failure leaked: %v", err)
	}
	if !res.BecameMutual || len(res.Match.Icebreakers) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestWithdrawAndDecline(t *testing.T) {
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	f := newFixture(t, a, b, c)

	if _, err := f.uc.WithdrawInterest(ctx, f.eventID, a, b); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected not found before any interest, got %v", err)
	}

	f.uc.ExpressInterest(ctx, f.eventID, a, b)
	m, err := f.uc.WithdrawInterest(ctx, f.eventID, a, b)
	if err != nil || m.Status != domain.MatchPending || m.IsInterested(a) {
		t.Fatalf("withdraw on pending: %+v %v", m, err)
	}

	f.uc.ExpressInterest(ctx, f.eventID, a, b)
	f.uc.ExpressInterest(ctx, f.eventID, b, a)
	m, err = f.uc.WithdrawInterest(ctx, f.eventID, b, a)
	if err != nil || m.Status != domain.MatchDeclined {
		t.Fatalf("withdraw after mutual should decline: %+v %v", m, err)
	}
	if _, err := f.uc.ExpressInterest(ctx, f.eventID, b, a); !errors.Is(err, domain.ErrMatchDeclined) {
		t.Fatalf("expected declined to be terminal, got %v", err)
	}

	f.uc.ExpressInterest(ctx, f.eventID, c, a)
	if _, err := f.uc.DeclineInterest(ctx, f.eventID, c, a); !errors.Is(err, domain.ErrNothingToDecline) {
		t.Fatalf("the interested side cannot decline, got %v", err)
	}
	m, err = f.uc.DeclineInterest(ctx, f.eventID, a, c)
	if err != nil || m.Status != domain.MatchDeclined {
		t.Fatalf("decline: %+v %v", m, err)
	}
	if _, err := f.uc.DeclineInterest(ctx, f.eventID, a, c); err != nil {
		t.Fatalf("decline should be idempotent, got %v", err)
	}
}

func TestListsAndCounts(t *testing.T) {
	ctx := context.Background()
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	f := newFixture(t, a, b, c, d)
	dob := time.Date(1995, 3, 10, 0, 0, 0, 0, time.UTC)
	for id, name := range map[uuid.UUID]string{a: "Ann", b: "Boris", c: "Clara", d: "Dan"} {
		if err := f.store.Profiles().Create(ctx, &domain.Profile{UserID: id, FullName: name, DateOfBirth: dob, Gender: "other"}); err != nil {
			t.Fatalf("Create profile: %v", err)
		}
	}

	clock := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	f.uc.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	f.uc.ExpressInterest(ctx, f.eventID, a, b)
	f.uc.ExpressInterest(ctx, f.eventID, b, a)
	f.uc.ExpressInterest(ctx, f.eventID, a, c)
	f.uc.ExpressInterest(ctx, f.eventID, c, a)
	f.uc.ExpressInterest(ctx, f.eventID, d, a)

	mutual, err := f.uc.ListMutualMatches(ctx, a)
	if err != nil {
		t.Fatalf("ListMutualMatches: %v", err)
	}
	if len(mutual) != 2 {
		t.Fatalf("expected 2 mutual matches, got %d", len(mutual))
	}
	if mutual[0].Counterpart.FullName != "Clara" || mutual[1].Counterpart.FullName != "Boris" {
		t.Fatalf("expected newest first, got %s then %s", mutual[0].Counterpart.FullName, mutual[1].Counterpart.FullName)
	}
	if mutual[0].EventTitle != "Friday Speed Dating" {
		t.Fatalf("event title not resolved: %q", mutual[0].EventTitle)
	}

	count, err := f.uc.PendingInterestCount(ctx, a)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 pending interest, got %d (%v)", count, err)
	}
	pending, _ := f.uc.ListPendingInterests(ctx, a)
	if len(pending) != 1 || pending[0].Counterpart.UserID != d {
		t.Fatalf("unexpected pending list %+v", pending)
	}
	if n, _ := f.uc.PendingInterestCount(ctx, d); n != 0 {
		t.Fatalf("the interested side has nothing pending, got %d", n)
	}

	view, err := f.uc.GetMatch(ctx, mutual[0].Match.ID, c)
	if err != nil || view.Counterpart.UserID != a {
		t.Fatalf("GetMatch from the other side: %+v %v", view, err)
	}
	if _, err := f.uc.GetMatch(ctx, mutual[0].Match.ID, d); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

package instances

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gigbook/internal/calendar"
	"gigbook/internal/store"
	"gigbook/shared/go/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

type recordingPublisher struct {
	mu     sync.Mutex
	events []ShowsGenerated
	err    error
}

func (p *recordingPublisher) PublishShowsGenerated(_ context.Context, event ShowsGenerated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func newTestSynchronizer(st Store, today time.Time, opts ...Option) *Synchronizer {
	base := []Option{
		WithClock(func() time.Time { return today.Add(15 * time.Hour) }),
		WithHorizonDays(30),
		WithLogger(zerolog.Nop()),
	}
	return NewSynchronizer(st, append(base, opts...)...)
}

func tuesdayGig(t *testing.T, m *store.MemoryStore, venueID int64) *models.RecurringGig {
	t.Helper()
	gig, err := m.CreateRecurringGig(context.Background(), &models.RecurringGig{
		VenueID:     venueID,
		PayAmount:   floatPtr(150),
		PatternType: models.PatternWeekly,
		DayOfWeek:   intPtr(int(time.Tuesday)),
		StartDate:   calendar.Date(2024, 12, 1),
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("CreateRecurringGig error: %v", err)
	}
	return gig
}

func TestSyncGigIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	gig := tuesdayGig(t, m, 1)
	pub := &recordingPublisher{}
	s := newTestSynchronizer(m, calendar.Date(2025, 1, 1), WithPublisher(pub))

	first, err := s.SyncGig(ctx, gig)
	if err != nil {
		t.Fatalf("first SyncGig error: %v", err)
	}
	if len(first.Created) != 4 || first.Existing != 0 {
		t.Fatalf("first sync created %d existing %d, want 4 and 0", len(first.Created), first.Existing)
	}
	want := []time.Time{
		calendar.Date(2025, 1, 7),
		calendar.Date(2025, 1, 14),
		calendar.Date(2025, 1, 21),
		calendar.Date(2025, 1, 28),
	}
	for i, sh := range first.Created {
		if !sh.Date.Equal(want[i]) {
			t.Fatalf("created[%d] date = %s, want %s", i, sh.Date.Format(time.DateOnly), want[i].Format(time.DateOnly))
		}
		if sh.Pay() != 150 || sh.PaymentStatus != models.PaymentPending || *sh.VenueID != 1 {
			t.Fatalf("created[%d] = %+v", i, sh)
		}
	}

	second, err := s.SyncGig(ctx, gig)
	if err != nil {
		t.Fatalf("second SyncGig error: %v", err)
	}
	if len(second.Created) != 0 || second.Existing != 4 {
		t.Fatalf("second sync created %d existing %d, want 0 and 4", len(second.Created), second.Existing)
	}

	shows, _ := m.ListShows(ctx, models.ShowFilter{RecurringGigID: &gig.ID})
	if len(shows) != 4 {
		t.Fatalf("stored shows = %d, want 4", len(shows))
	}
	if len(pub.events) != 1 || len(pub.events[0].ShowIDs) != 4 {
		t.Fatalf("published events = %+v", pub.events)
	}
}

func TestSyncGigLeavesExistingInstancesAlone(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	gig := tuesdayGig(t, m, 1)

	existing, err := m.CreateShow(ctx, &models.Show{
		VenueID:        &gig.VenueID,
		RecurringGigID: &gig.ID,
		Date:           calendar.Date(2025, 1, 14),
		PayAmount:      floatPtr(200),
	})
	if err != nil {
		t.Fatalf("CreateShow error: %v", err)
	}
	if _, err := m.MarkShowPaid(ctx, existing.ID, calendar.Date(2025, 1, 15)); err != nil {
		t.Fatalf("MarkShowPaid error: %v", err)
	}

	s := newTestSynchronizer(m, calendar.Date(2025, 1, 1))
	res, err := s.SyncGig(ctx, gig)
	if err != nil {
		t.Fatalf("SyncGig error: %v", err)
	}
	if len(res.Created) != 3 || res.Existing != 1 {
		t.Fatalf("created %d existing %d, want 3 and 1", len(res.Created), res.Existing)
	}

	got, _ := m.GetShow(ctx, existing.ID)
	if got.Pay() != 200 || got.PaymentStatus != models.PaymentPaid {
		t.Fatalf("existing instance modified: %+v", got)
	}
}

func TestSyncGigRespectsEndDate(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	end := calendar.Date(2025, 1, 15)
	gig, _ := m.CreateRecurringGig(ctx, &models.RecurringGig{
		VenueID:     1,
		PatternType: models.PatternWeekly,
		DayOfWeek:   intPtr(int(time.Tuesday)),
		StartDate:   calendar.Date(2024, 12, 1),
		EndDate:     &end,
		IsActive:    true,
	})

	res, err := newTestSynchronizer(m, calendar.Date(2025, 1, 1)).SyncGig(ctx, gig)
	if err != nil {
		t.Fatalf("SyncGig error: %v", err)
	}
	if len(res.Created) != 2 {
		t.Fatalf("created %d, want 2", len(res.Created))
	}
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	good := tuesdayGig(t, m, 1)
	bad, _ := m.CreateRecurringGig(ctx, &models.RecurringGig{
		VenueID:     2,
		PatternType: models.PatternMonthlyDate,
		DayOfMonth:  intPtr(40),
		StartDate:   calendar.Date(2024, 12, 1),
		IsActive:    true,
	})
	inactive, _ := m.CreateRecurringGig(ctx, &models.RecurringGig{
		VenueID:     3,
		PatternType: models.PatternWeekly,
		DayOfWeek:   intPtr(int(time.Friday)),
		StartDate:   calendar.Date(2024, 12, 1),
		IsActive:    false,
	})

	sum, err := newTestSynchronizer(m, calendar.Date(2025, 1, 1)).SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll error: %v", err)
	}
	if sum.Gigs != 2 || sum.Created != 4 {
		t.Fatalf("summary = %+v, want 2 gigs and 4 created", sum)
	}
	if len(sum.Failures) != 1 || sum.Failures[0].RecurringGigID != bad.ID {
		t.Fatalf("failures = %+v, want gig %d", sum.Failures, bad.ID)
	}
	if sum.RunID == "" {
		t.Fatal("expected run id")
	}

	shows, _ := m.ListShows(ctx, models.ShowFilter{RecurringGigID: &good.ID})
	if len(shows) != 4 {
		t.Fatalf("good gig shows = %d, want 4", len(shows))
	}
	shows, _ = m.ListShows(ctx, models.ShowFilter{RecurringGigID: &inactive.ID})
	if len(shows) != 0 {
		t.Fatalf("inactive gig shows = %d, want 0", len(shows))
	}
}

func TestSyncConcurrentRunsDoNotDuplicate(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	gig := tuesdayGig(t, m, 1)
	s := newTestSynchronizer(m, calendar.Date(2025, 1, 1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SyncGig(ctx, gig); err != nil {
				t.Errorf("SyncGig error: %v", err)
			}
		}()
	}
	wg.Wait()

	shows, _ := m.ListShows(ctx, models.ShowFilter{RecurringGigID: &gig.ID})
	if len(shows) != 4 {
		t.Fatalf("stored shows = %d, want 4", len(shows))
	}
}

func TestSyncPublishFailureDoesNotFailSync(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	gig := tuesdayGig(t, m, 1)
	pub := &recordingPublisher{err: errors.New("broker down")}

	res, err := newTestSynchronizer(m, calendar.Date(2025, 1, 1), WithPublisher(pub)).SyncGig(ctx, gig)
	if err != nil {
		t.Fatalf("SyncGig error: %v", err)
	}
	if len(res.Created) != 4 {
		t.Fatalf("created %d, want 4", len(res.Created))
	}
}

func TestSyncGigByIDNotFound(t *testing.T) {
	s := newTestSynchronizer(store.NewMemoryStore(), calendar.Date(2025, 1, 1))
	if _, err := s.SyncGigByID(context.Background(), 99); !errors.Is(err, store.ErrRecurringGigNotFound) {
		t.Fatalf("SyncGigByID error = %v, want ErrRecurringGigNotFound", err)
	}
}

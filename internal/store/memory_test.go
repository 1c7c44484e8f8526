package store

import (
	"context"
	"errors"
	"testing"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

func intPtr(v int) *int { return &v }

func TestMemoryStoreDeleteVenueCascade(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	today := calendar.Date(2025, 6, 15)

	venue, err := m.CreateVenue(ctx, &models.Venue{Name: "Blue Room"})
	if err != nil {
		t.Fatalf("CreateVenue error: %v", err)
	}
	other, _ := m.CreateVenue(ctx, &models.Venue{Name: "Other"})

	gig, err := m.CreateRecurringGig(ctx, &models.RecurringGig{
		VenueID:     venue.ID,
		PatternType: models.PatternWeekly,
		DayOfWeek:   intPtr(5),
		StartDate:   calendar.Date(2025, 1, 1),
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("CreateRecurringGig error: %v", err)
	}

	var ids []int64
	for _, d := range []int{-20, -5, 10} {
		sh, err := m.CreateShow(ctx, &models.Show{VenueID: &venue.ID, Date: calendar.AddDays(today, d)})
		if err != nil {
			t.Fatalf("CreateShow error: %v", err)
		}
		ids = append(ids, sh.ID)
	}
	otherShow, _ := m.CreateShow(ctx, &models.Show{VenueID: &other.ID, Date: calendar.AddDays(today, -3)})
	if _, err := m.CreateContactLog(ctx, &models.ContactLog{VenueID: venue.ID, ContactedAt: today, Method: models.ContactPhone}); err != nil {
		t.Fatalf("CreateContactLog error: %v", err)
	}

	res, err := m.DeleteVenue(ctx, venue.ID, today)
	if err != nil {
		t.Fatalf("DeleteVenue error: %v", err)
	}
	if *res != (DeleteResult{DetachedShows: 2, CancelledShows: 1, DeactivatedGigs: 1}) {
		t.Fatalf("DeleteVenue result = %+v", *res)
	}

	for _, id := range ids[:2] {
		sh, _ := m.GetShow(ctx, id)
		if sh.VenueID != nil || sh.VenueNameSnapshot == nil || *sh.VenueNameSnapshot != "Blue Room" || sh.IsCancelled {
			t.Fatalf("past show %d not detached: %+v", id, sh)
		}
	}
	future, _ := m.GetShow(ctx, ids[2])
	if !future.IsCancelled {
		t.Fatalf("future show not cancelled: %+v", future)
	}

	g, _ := m.GetRecurringGig(ctx, gig.ID)
	if g.IsActive {
		t.Fatalf("recurring gig still active")
	}

	logs, _ := m.ListContactLogs(ctx, venue.ID)
	if len(logs) != 1 {
		t.Fatalf("contact logs = %d, want 1", len(logs))
	}

	untouched, _ := m.GetShow(ctx, otherShow.ID)
	if untouched.VenueID == nil || untouched.VenueNameSnapshot != nil {
		t.Fatalf("other venue's show changed: %+v", untouched)
	}

	detached, _ := m.ListDetachedShows(ctx)
	if len(detached) != 2 {
		t.Fatalf("detached shows = %d, want 2", len(detached))
	}

	if _, err := m.GetVenue(ctx, venue.ID); !errors.Is(err, ErrVenueNotFound) {
		t.Fatalf("expected ErrVenueNotFound, got %v", err)
	}
	if _, err := m.DeleteVenue(ctx, venue.ID, today); !errors.Is(err, ErrVenueNotFound) {
		t.Fatalf("second delete: expected ErrVenueNotFound, got %v", err)
	}
}

func TestMemoryStoreInstanceUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	gigID := int64(42)
	date := calendar.Date(2025, 7, 4)

	first, err := m.CreateShow(ctx, &models.Show{VenueID: int64Ptr(1), RecurringGigID: &gigID, Date: date})
	if err != nil {
		t.Fatalf("CreateShow error: %v", err)
	}
	if first.PaymentStatus != models.PaymentPending {
		t.Fatalf("default payment status = %q", first.PaymentStatus)
	}

	if _, err := m.CreateShow(ctx, &models.Show{VenueID: int64Ptr(1), RecurringGigID: &gigID, Date: date}); !errors.Is(err, ErrShowExists) {
		t.Fatalf("expected ErrShowExists, got %v", err)
	}

	got, err := m.GetShowForRecurringDate(ctx, gigID, date)
	if err != nil || got.ID != first.ID {
		t.Fatalf("GetShowForRecurringDate = %+v, %v", got, err)
	}
	if _, err := m.GetShowForRecurringDate(ctx, gigID, calendar.AddDays(date, 7)); !errors.Is(err, ErrShowNotFound) {
		t.Fatalf("expected ErrShowNotFound, got %v", err)
	}

	// returned records are copies
	got.IsCancelled = true
	again, _ := m.GetShow(ctx, first.ID)
	if again.IsCancelled {
		t.Fatalf("mutating a returned show changed the store")
	}
}

func TestMemoryStoreDeactivateCancelsFutureInstances(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	gig, _ := m.CreateRecurringGig(ctx, &models.RecurringGig{
		VenueID:     1,
		PatternType: models.PatternWeekly,
		DayOfWeek:   intPtr(1),
		StartDate:   calendar.Date(2025, 1, 1),
		IsActive:    true,
	})

	for _, d := range []int{1, 8, 15, 22} {
		if _, err := m.CreateShow(ctx, &models.Show{VenueID: int64Ptr(1), RecurringGigID: &gig.ID, Date: calendar.Date(2025, 6, d)}); err != nil {
			t.Fatalf("CreateShow error: %v", err)
		}
	}
	paid, _ := m.GetShowForRecurringDate(ctx, gig.ID, calendar.Date(2025, 6, 22))
	if _, err := m.MarkShowPaid(ctx, paid.ID, calendar.Date(2025, 6, 22)); err != nil {
		t.Fatalf("MarkShowPaid error: %v", err)
	}

	from := calendar.Date(2025, 6, 10)
	n, err := m.DeactivateRecurringGig(ctx, gig.ID, &from)
	if err != nil {
		t.Fatalf("DeactivateRecurringGig error: %v", err)
	}
	if n != 1 {
		t.Fatalf("cancelled = %d, want 1", n)
	}

	active, _ := m.ListRecurringGigs(ctx, true)
	if len(active) != 0 {
		t.Fatalf("active gigs = %d, want 0", len(active))
	}
}

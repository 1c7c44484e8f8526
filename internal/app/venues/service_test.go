package venues

import (
	"context"
	"errors"
	"testing"
	"time"

	"gigbook/internal/calendar"
	"gigbook/internal/rules"
	"gigbook/internal/store"
	"gigbook/shared/go/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		venue   *models.Venue
		wantErr bool
		window  bool
	}{
		{name: "minimal", venue: &models.Venue{Name: "Blue Room"}},
		{name: "nil", venue: nil, wantErr: true},
		{name: "blank name", venue: &models.Venue{Name: "   "}, wantErr: true},
		{name: "bad payment method", venue: &models.Venue{Name: "A", PaymentMethod: "barter"}, wantErr: true},
		{name: "negative mileage", venue: &models.Venue{Name: "A", MileageOneWay: floatPtr(-1)}, wantErr: true},
		{name: "negative pay", venue: &models.Venue{Name: "A", TypicalPay: floatPtr(-5)}, wantErr: true},
		{name: "wrapping window", venue: &models.Venue{Name: "A", BookingWindowStart: intPtr(25), BookingWindowEnd: intPtr(5)}},
		{name: "end without start", venue: &models.Venue{Name: "A", BookingWindowEnd: intPtr(5)}, wantErr: true, window: true},
		{name: "window day out of range", venue: &models.Venue{Name: "A", BookingWindowStart: intPtr(32)}, wantErr: true, window: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.venue)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidVenue) {
				t.Fatalf("Validate error = %v, want ErrInvalidVenue", err)
			}
			if tc.window && !errors.Is(err, rules.ErrInvalidWindow) {
				t.Fatalf("Validate error = %v, want ErrInvalidWindow", err)
			}
		})
	}
}

func TestDeleteUsesToday(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	today := calendar.Date(2025, 3, 10)
	svc := New(m, func() time.Time { return today.Add(20 * time.Hour) })

	v, err := svc.Create(ctx, &models.Venue{Name: "  Blue Room "})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if v.Name != "Blue Room" {
		t.Fatalf("name = %q, want trimmed", v.Name)
	}
	for _, d := range []time.Time{calendar.Date(2025, 3, 9), today, calendar.Date(2025, 3, 11)} {
		if _, err := m.CreateShow(ctx, &models.Show{VenueID: &v.ID, Date: d}); err != nil {
			t.Fatalf("CreateShow error: %v", err)
		}
	}

	res, err := svc.Delete(ctx, v.ID)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if res.DetachedShows != 1 || res.CancelledShows != 2 {
		t.Fatalf("Delete result = %+v, want 1 detached and 2 cancelled", res)
	}

	if _, err := svc.Get(ctx, v.ID); !errors.Is(err, store.ErrVenueNotFound) {
		t.Fatalf("Get after delete error = %v, want ErrVenueNotFound", err)
	}
}

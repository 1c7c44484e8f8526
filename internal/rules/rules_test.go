package rules

import (
	"errors"
	"testing"
	"time"

	"gigbook/internal/calendar"
	"gigbook/shared/go/config"
	"gigbook/shared/go/models"
)

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func windowVenue(start, end int) *models.Venue {
	return &models.Venue{ID: 1, Name: "Blue Room", BookingWindowStart: intPtr(start), BookingWindowEnd: intPtr(end)}
}

func TestIsOpen(t *testing.T) {
	tests := []struct {
		name  string
		venue *models.Venue
		today time.Time
		want  bool
	}{
		{"plain window inside", windowVenue(1, 10), calendar.Date(2025, 3, 5), true},
		{"plain window on end day", windowVenue(1, 10), calendar.Date(2025, 3, 10), true},
		{"plain window after", windowVenue(1, 10), calendar.Date(2025, 3, 11), false},
		{"wraparound late month", windowVenue(25, 5), calendar.Date(2025, 3, 27), true},
		{"wraparound early month", windowVenue(25, 5), calendar.Date(2025, 3, 3), true},
		{"wraparound mid month", windowVenue(25, 5), calendar.Date(2025, 3, 15), false},
		{"start only is single day", &models.Venue{BookingWindowStart: intPtr(12)}, calendar.Date(2025, 3, 12), true},
		{"no window", &models.Venue{}, calendar.Date(2025, 3, 12), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := IsOpen(tc.venue, tc.today)
			if err != nil {
				t.Fatalf("IsOpen() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("IsOpen() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDaysUntilOpen(t *testing.T) {
	tests := []struct {
		name   string
		venue  *models.Venue
		today  time.Time
		want   int
		wantOK bool
	}{
		{"wraparound mid month", windowVenue(25, 5), calendar.Date(2025, 3, 15), 10, true},
		{"currently open", windowVenue(25, 5), calendar.Date(2025, 3, 27), 0, false},
		{"later this month", windowVenue(20, 25), calendar.Date(2025, 4, 18), 2, true},
		{"next month uses current month length", windowVenue(1, 3), calendar.Date(2025, 1, 20), 12, true},
		{"next month from february", windowVenue(1, 3), calendar.Date(2025, 2, 20), 9, true},
		{"no window", &models.Venue{}, calendar.Date(2025, 3, 15), 0, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := DaysUntilOpen(tc.venue, tc.today)
			if err != nil {
				t.Fatalf("DaysUntilOpen() error = %v", err)
			}
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("DaysUntilOpen() = (%d, %v), want (%d, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestValidateWindow(t *testing.T) {
	bad := []*models.Venue{
		{BookingWindowEnd: intPtr(5)},
		{BookingWindowStart: intPtr(0), BookingWindowEnd: intPtr(5)},
		{BookingWindowStart: intPtr(3), BookingWindowEnd: intPtr(32)},
	}
	for _, v := range bad {
		if err := ValidateWindow(v); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("ValidateWindow(%+v) error = %v, want ErrInvalidWindow", v, err)
		}
		if _, err := IsOpen(v, calendar.Date(2025, 1, 1)); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("IsOpen should fail for %+v", v)
		}
	}
	if err := ValidateWindow(windowVenue(25, 5)); err != nil {
		t.Fatalf("wraparound window rejected: %v", err)
	}
}

func TestClassify(t *testing.T) {
	today := calendar.Date(2025, 6, 15)
	th := config.DefaultThresholds()
	invoiceVenue := &models.Venue{ID: 1, Name: "Hall", RequiresInvoice: true}
	plainVenue := &models.Venue{ID: 2, Name: "Bar"}

	show := func(date time.Time, status models.PaymentStatus) *models.Show {
		return &models.Show{ID: 7, VenueID: int64Ptr(1), Date: date, PaymentStatus: status, PayAmount: floatPtr(200)}
	}

	tests := []struct {
		name  string
		show  *models.Show
		venue *models.Venue
		state PaymentState
		days  int
	}{
		{"paid beats unsent invoice", show(calendar.Date(2025, 4, 1), models.PaymentPaid), invoiceVenue, StatePaid, 0},
		{"future show is pending", show(calendar.Date(2025, 7, 1), models.PaymentPending), invoiceVenue, StatePending, 0},
		{"show today is pending", show(today, models.PaymentPending), invoiceVenue, StatePending, 0},
		{"past show needs invoice", show(calendar.Date(2025, 6, 1), models.PaymentPending), invoiceVenue, StateNeedsInvoice, 14},
		{"old show needs invoice before overdue", show(calendar.Date(2025, 4, 1), models.PaymentPending), invoiceVenue, StateNeedsInvoice, 75},
		{"overdue at threshold", show(calendar.Date(2025, 5, 16), models.PaymentPending), plainVenue, StateOverdue, 30},
		{"unpaid under threshold", show(calendar.Date(2025, 5, 17), models.PaymentPending), plainVenue, StateUnpaid, 29},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.show, tc.venue, today, th)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.State != tc.state || got.DaysUnpaid != tc.days {
				t.Fatalf("Classify() = %s/%d, want %s/%d", got.State, got.DaysUnpaid, tc.state, tc.days)
			}
		})
	}

	t.Run("invoice sent falls through to age", func(t *testing.T) {
		s := show(calendar.Date(2025, 4, 1), models.PaymentPending)
		s.InvoiceSent = true
		s.InvoiceSentDate = timePtr(calendar.Date(2025, 4, 2))
		got, err := Classify(s, invoiceVenue, today, th)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if got.State != StateOverdue || got.Label() != "OVERDUE (75d)" {
			t.Fatalf("Classify() = %s, want OVERDUE (75d)", got.Label())
		}
	})

	t.Run("threshold is a parameter", func(t *testing.T) {
		custom := th
		custom.PaymentOverdueDays = 10
		got, err := Classify(show(calendar.Date(2025, 6, 1), models.PaymentPending), plainVenue, today, custom)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if got.State != StateOverdue {
			t.Fatalf("Classify() = %s, want overdue", got.State)
		}
	})
}

func TestCheckShow(t *testing.T) {
	base := func() *models.Show {
		return &models.Show{ID: 3, VenueID: int64Ptr(1), Date: calendar.Date(2025, 5, 1), PaymentStatus: models.PaymentPending}
	}

	tests := []struct {
		name      string
		mutate    func(*models.Show)
		invariant string
	}{
		{"orphan", func(s *models.Show) { s.VenueID = nil }, InvariantOrphanReference},
		{"empty snapshot is orphan", func(s *models.Show) { s.VenueID = nil; s.VenueNameSnapshot = strPtr("") }, InvariantOrphanReference},
		{"invoice date without invoice", func(s *models.Show) { s.InvoiceSentDate = timePtr(calendar.Date(2025, 5, 2)) }, InvariantInvoiceDate},
		{"received while pending", func(s *models.Show) { s.PaymentReceivedDate = timePtr(calendar.Date(2025, 5, 2)) }, InvariantReceivedPending},
		{"received before show", func(s *models.Show) {
			s.PaymentStatus = models.PaymentPaid
			s.PaymentReceivedDate = timePtr(calendar.Date(2025, 4, 30))
		}, InvariantReceivedBefore},
		{"unknown status", func(s *models.Show) { s.PaymentStatus = "partial" }, InvariantPaymentStatus},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			tc.mutate(s)
			err := CheckShow(s)
			if !errors.Is(err, ErrInconsistentRecord) {
				t.Fatalf("CheckShow() error = %v, want ErrInconsistentRecord", err)
			}
			var rerr *RecordError
			if !errors.As(err, &rerr) || rerr.Invariant != tc.invariant {
				t.Fatalf("CheckShow() invariant = %v, want %s", err, tc.invariant)
			}
			if _, err := Classify(s, nil, calendar.Date(2025, 6, 1), config.DefaultThresholds()); err == nil {
				t.Fatalf("Classify() accepted an inconsistent show")
			}
		})
	}

	detached := base()
	detached.VenueID = nil
	detached.VenueNameSnapshot = strPtr("Old Place")
	if err := CheckShow(detached); err != nil {
		t.Fatalf("detached show with snapshot rejected: %v", err)
	}
	if !IsOrphan(CheckShow(&models.Show{ID: 9, PaymentStatus: models.PaymentPending})) {
		t.Fatalf("IsOrphan() = false for orphaned show")
	}
}

func TestUnpaidBalance(t *testing.T) {
	today := calendar.Date(2025, 6, 15)
	shows := []models.Show{
		{Date: calendar.Date(2025, 6, 1), PaymentStatus: models.PaymentPending, PayAmount: floatPtr(150)},
		{Date: calendar.Date(2025, 5, 1), PaymentStatus: models.PaymentPending, PayAmount: floatPtr(100.5)},
		{Date: calendar.Date(2025, 5, 2), PaymentStatus: models.PaymentPaid, PayAmount: floatPtr(500)},
		{Date: calendar.Date(2025, 7, 1), PaymentStatus: models.PaymentPending, PayAmount: floatPtr(500)},
		{Date: calendar.Date(2025, 5, 3), PaymentStatus: models.PaymentPending, PayAmount: floatPtr(500), IsCancelled: true},
		{Date: calendar.Date(2025, 5, 4), PaymentStatus: models.PaymentPending},
	}
	if got := UnpaidBalance(shows, today); got != 250.5 {
		t.Fatalf("UnpaidBalance() = %v, want 250.5", got)
	}
}

func TestContactPolicy(t *testing.T) {
	today := calendar.Date(2025, 6, 15)
	th := config.DefaultThresholds()

	tests := []struct {
		name       string
		logs       []models.ContactLog
		suppressed bool
		days       int
		hasDays    bool
		due        bool
	}{
		{
			name: "never contacted",
			due:  true,
		},
		{
			name:       "recent awaiting response",
			logs:       []models.ContactLog{{ContactedAt: calendar.Date(2025, 6, 5), Outcome: models.OutcomeAwaitingResponse}},
			suppressed: true,
			days:       10,
			hasDays:    true,
		},
		{
			name:    "stale awaiting response",
			logs:    []models.ContactLog{{ContactedAt: calendar.Date(2025, 6, 1), Outcome: models.OutcomeAwaitingResponse}},
			days:    14,
			hasDays: true,
		},
		{
			name: "future follow-up on an old log suppresses",
			logs: []models.ContactLog{
				{ContactedAt: calendar.Date(2025, 1, 10), Outcome: models.OutcomeFollowUpNeeded, FollowUpDate: timePtr(calendar.Date(2025, 7, 1))},
				{ContactedAt: calendar.Date(2025, 2, 1), Outcome: models.OutcomeDeclined},
			},
			suppressed: true,
			days:       134,
			hasDays:    true,
		},
		{
			name:    "follow-up due today does not suppress",
			logs:    []models.ContactLog{{ContactedAt: calendar.Date(2025, 3, 1), FollowUpDate: timePtr(today)}},
			days:    106,
			hasDays: true,
			due:     true,
		},
		{
			name:    "latest contact wins",
			logs:    []models.ContactLog{{ContactedAt: calendar.Date(2025, 1, 1)}, {ContactedAt: time.Date(2025, 5, 16, 21, 30, 0, 0, time.UTC)}},
			days:    30,
			hasDays: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSuppressed(tc.logs, today, th); got != tc.suppressed {
				t.Fatalf("IsSuppressed() = %v, want %v", got, tc.suppressed)
			}
			days, ok := DaysSinceContact(tc.logs, today)
			if ok != tc.hasDays || days != tc.days {
				t.Fatalf("DaysSinceContact() = (%d, %v), want (%d, %v)", days, ok, tc.days, tc.hasDays)
			}
			if got := ContactDue(tc.logs, today, th); got != tc.due {
				t.Fatalf("ContactDue() = %v, want %v", got, tc.due)
			}
		})
	}
}

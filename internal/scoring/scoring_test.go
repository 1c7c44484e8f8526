package scoring

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"gigbook/internal/calendar"
	"gigbook/internal/rules"
	"gigbook/shared/go/config"
	"gigbook/shared/go/models"
)

var today = calendar.Date(2025, 6, 15)

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func pastShow(id int64, venueID int64, daysAgo int, pay float64) models.Show {
	return models.Show{
		ID:            id,
		VenueID:       int64Ptr(venueID),
		Date:          calendar.AddDays(today, -daysAgo),
		PayAmount:     floatPtr(pay),
		PaymentStatus: models.PaymentPending,
	}
}

func futureShow(id int64, venueID int64, daysAhead int) models.Show {
	return models.Show{
		ID:            id,
		VenueID:       int64Ptr(venueID),
		Date:          calendar.AddDays(today, daysAhead),
		PaymentStatus: models.PaymentPending,
	}
}

func recentContact(venueID int64, daysAgo int) models.ContactLog {
	return models.ContactLog{VenueID: venueID, ContactedAt: calendar.AddDays(today, -daysAgo), Method: models.ContactEmail}
}

func TestScoreVenue(t *testing.T) {
	th := config.DefaultThresholds()

	tests := []struct {
		name    string
		in      Input
		score   int
		section Section
		reasons []Reason
	}{
		{
			name: "overdue plus imminent window plus no shows with suppressed contact",
			in: Input{
				Venue: models.Venue{ID: 1, Name: "Blue Room", BookingWindowStart: intPtr(17), BookingWindowEnd: intPtr(20)},
				Shows: []models.Show{pastShow(1, 1, 40, 200)},
				Contacts: []models.ContactLog{{
					VenueID:     1,
					ContactedAt: calendar.AddDays(today, -3),
					Method:      models.ContactEmail,
					Outcome:     models.OutcomeAwaitingResponse,
				}},
			},
			score:   65,
			section: SectionGetPaid,
			reasons: []Reason{ReasonPaymentOverdue, ReasonBookingWindowSoon, ReasonNoUpcomingShows},
		},
		{
			name: "stacked payment weights",
			in: Input{
				Venue: models.Venue{ID: 2, Name: "Hall", RequiresInvoice: true},
				Shows: func() []models.Show {
					invoiced := pastShow(3, 2, 50, 100)
					invoiced.InvoiceSent = true
					invoiced.InvoiceSentDate = timePtr(calendar.AddDays(today, -49))
					invoiced2 := pastShow(4, 2, 35, 100)
					invoiced2.InvoiceSent = true
					return []models.Show{
						invoiced,
						invoiced2,
						pastShow(5, 2, 10, 100),
						pastShow(6, 2, 5, 100),
						futureShow(7, 2, 3),
						futureShow(8, 2, 10),
						futureShow(9, 2, 17),
					}
				}(),
				Contacts: []models.ContactLog{recentContact(2, 5)},
			},
			score:   35 + 15 + 30 + 10,
			section: SectionGetPaid,
			reasons: []Reason{ReasonPaymentOverdue, ReasonInvoiceNeeded},
		},
		{
			name: "open window",
			in: Input{
				Venue:    models.Venue{ID: 3, Name: "Cellar", BookingWindowStart: intPtr(25), BookingWindowEnd: intPtr(15)},
				Shows:    []models.Show{futureShow(10, 3, 4)},
				Contacts: []models.ContactLog{recentContact(3, 70)},
			},
			score:   25 + 5 + 3,
			section: SectionBookShows,
			reasons: []Reason{ReasonBookingWindowOpen, ReasonFewUpcomingShows, ReasonContactDue},
		},
		{
			name: "distant window still books shows",
			in: Input{
				Venue:    models.Venue{ID: 4, Name: "Loft", BookingWindowStart: intPtr(1), BookingWindowEnd: intPtr(5)},
				Contacts: []models.ContactLog{recentContact(4, 5)},
			},
			score:   10,
			section: SectionBookShows,
			reasons: []Reason{ReasonNoUpcomingShows},
		},
		{
			name: "never contacted",
			in: Input{
				Venue: models.Venue{ID: 5, Name: "Patio"},
				Shows: []models.Show{futureShow(11, 5, 1), futureShow(12, 5, 2), futureShow(13, 5, 3)},
			},
			score:   5,
			section: SectionStayInTouch,
			reasons: []Reason{ReasonContactNever},
		},
		{
			name: "stale contact",
			in: Input{
				Venue:    models.Venue{ID: 6, Name: "Garden"},
				Shows:    []models.Show{futureShow(14, 6, 1), futureShow(15, 6, 2), futureShow(16, 6, 3)},
				Contacts: []models.ContactLog{recentContact(6, 120)},
			},
			score:   5,
			section: SectionStayInTouch,
			reasons: []Reason{ReasonContactStale},
		},
		{
			name: "minor factors leave venue unsectioned",
			in: Input{
				Venue:    models.Venue{ID: 7, Name: "Corner"},
				Shows:    []models.Show{futureShow(17, 7, 8)},
				Contacts: []models.ContactLog{recentContact(7, 10)},
			},
			score:   5,
			section: SectionNone,
			reasons: []Reason{ReasonFewUpcomingShows},
		},
		{
			name: "quiet venue scores zero",
			in: Input{
				Venue:    models.Venue{ID: 8, Name: "Busy"},
				Shows:    []models.Show{futureShow(18, 8, 1), futureShow(19, 8, 2), futureShow(20, 8, 3)},
				Contacts: []models.ContactLog{recentContact(8, 10)},
			},
			score:   0,
			section: SectionNone,
		},
		{
			name: "paid upcoming show still counts as upcoming",
			in: Input{
				Venue: models.Venue{ID: 10, Name: "Annex"},
				Shows: func() []models.Show {
					prepaid := futureShow(27, 10, 16)
					prepaid.PaymentStatus = models.PaymentPaid
					return []models.Show{prepaid}
				}(),
				Contacts: []models.ContactLog{{
					VenueID:     10,
					ContactedAt: calendar.AddDays(today, -3),
					Method:      models.ContactEmail,
					Outcome:     models.OutcomeAwaitingResponse,
				}},
			},
			score:   5,
			section: SectionNone,
			reasons: []Reason{ReasonFewUpcomingShows},
		},
		{
			name: "cancelled and paid shows ignored",
			in: Input{
				Venue: models.Venue{ID: 9, Name: "Attic"},
				Shows: func() []models.Show {
					cancelled := pastShow(21, 9, 60, 100)
					cancelled.IsCancelled = true
					paid := pastShow(22, 9, 60, 100)
					paid.PaymentStatus = models.PaymentPaid
					future := futureShow(23, 9, 5)
					future.IsCancelled = true
					return []models.Show{cancelled, paid, future, futureShow(24, 9, 1), futureShow(25, 9, 2), futureShow(26, 9, 3)}
				}(),
				Contacts: []models.ContactLog{recentContact(9, 1)},
			},
			score:   0,
			section: SectionNone,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			vs, itemErrs := ScoreVenue(tc.in, today, th)
			if len(itemErrs) != 0 {
				t.Fatalf("unexpected item errors: %v", itemErrs)
			}
			if vs.Score != tc.score {
				t.Fatalf("score = %d, want %d (reasons %v)", vs.Score, tc.score, vs.Reasons)
			}
			if vs.Section != tc.section {
				t.Fatalf("section = %q, want %q", vs.Section, tc.section)
			}
			if !reflect.DeepEqual(vs.Reasons, tc.reasons) {
				t.Fatalf("reasons = %v, want %v", vs.Reasons, tc.reasons)
			}
			if vs.Color != ScoreColor(vs.Score) {
				t.Fatalf("color = %q, want %q", vs.Color, ScoreColor(vs.Score))
			}
		})
	}
}

func TestScoreVenueAlertsAndAmounts(t *testing.T) {
	in := Input{
		Venue: models.Venue{ID: 1, Name: "Hall", RequiresInvoice: true},
		Shows: func() []models.Show {
			sent := pastShow(1, 1, 45, 250)
			sent.InvoiceSent = true
			other := pastShow(2, 1, 60, 150)
			other.InvoiceSent = true
			return []models.Show{sent, other, pastShow(3, 1, 20, 100), pastShow(4, 1, 8, 100)}
		}(),
	}
	vs, itemErrs := ScoreVenue(in, today, config.DefaultThresholds())
	if len(itemErrs) != 0 {
		t.Fatalf("unexpected item errors: %v", itemErrs)
	}
	if vs.OverdueCount != 2 || vs.OverdueAmount != 400 {
		t.Fatalf("overdue = %d/%v, want 2/400", vs.OverdueCount, vs.OverdueAmount)
	}
	if vs.InvoiceCount != 2 || vs.OldestInvoiceDays != 20 {
		t.Fatalf("invoices = %d/%d, want 2/20", vs.InvoiceCount, vs.OldestInvoiceDays)
	}
	if len(vs.Alerts) != 4 {
		t.Fatalf("alerts = %d, want 4", len(vs.Alerts))
	}
	if vs.Alerts[0].VenueName != "Hall" || vs.Alerts[0].Label != "OVERDUE (45d)" {
		t.Fatalf("first alert = %+v", vs.Alerts[0])
	}
}

func TestScoreAllIsolatesFailures(t *testing.T) {
	broken := pastShow(2, 1, 40, 100)
	broken.InvoiceSentDate = timePtr(today)

	inputs := []Input{
		{
			Venue: models.Venue{ID: 1, Name: "Blue Room"},
			Shows: []models.Show{pastShow(1, 1, 40, 100), broken},
		},
		{
			Venue: models.Venue{ID: 2, Name: "Bad Window", BookingWindowStart: intPtr(40)},
		},
		{
			Venue: models.Venue{ID: 3, Name: "Patio"},
		},
	}

	scores, itemErrs := ScoreAll(inputs, today, config.DefaultThresholds())
	if len(scores) != 3 {
		t.Fatalf("scored %d venues, want 3", len(scores))
	}
	if scores[0].OverdueCount != 1 || scores[0].Score != 35+10+5 {
		t.Fatalf("venue 1 score = %+v", scores[0])
	}
	if scores[1].Score != 10+5 || scores[1].WindowOpen || scores[1].DaysUntilOpen != nil {
		t.Fatalf("venue 2 score = %+v", scores[1])
	}
	if len(itemErrs) != 2 {
		t.Fatalf("item errors = %v, want 2", itemErrs)
	}
	if itemErrs[0].ShowID != 2 || !errors.Is(itemErrs[0], rules.ErrInconsistentRecord) {
		t.Fatalf("first item error = %v", itemErrs[0])
	}
	if itemErrs[1].VenueID != 2 || !errors.Is(itemErrs[1], rules.ErrInvalidWindow) {
		t.Fatalf("second item error = %v", itemErrs[1])
	}
}

func TestScoreVenueInvalidWindowKeepsPaymentAlerts(t *testing.T) {
	in := Input{
		Venue:    models.Venue{ID: 1, Name: "Blue Room", BookingWindowStart: intPtr(40), BookingWindowEnd: intPtr(5)},
		Shows:    []models.Show{pastShow(1, 1, 75, 300), futureShow(2, 1, 9)},
		Contacts: []models.ContactLog{recentContact(1, 10)},
	}

	vs, itemErrs := ScoreVenue(in, today, config.DefaultThresholds())
	if len(itemErrs) != 1 || itemErrs[0].ShowID != 0 || !errors.Is(itemErrs[0], rules.ErrInvalidWindow) {
		t.Fatalf("item errors = %v, want one invalid window", itemErrs)
	}
	if vs.OverdueCount != 1 || len(vs.Alerts) != 1 || vs.Alerts[0].ShowID != 1 {
		t.Fatalf("payment signals lost: %+v", vs)
	}
	if vs.Score != 35+5 || vs.Section != SectionGetPaid {
		t.Fatalf("score = %d section = %q, want 40 get_paid", vs.Score, vs.Section)
	}
	want := []Reason{ReasonPaymentOverdue, ReasonFewUpcomingShows}
	if !reflect.DeepEqual(vs.Reasons, want) {
		t.Fatalf("reasons = %v, want %v", vs.Reasons, want)
	}
}

func TestScoreColor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "green"},
		{24, "green"},
		{25, "yellow"},
		{49, "yellow"},
		{50, "red"},
		{120, "red"},
	}
	for _, tc := range tests {
		if got := ScoreColor(tc.score); got != tc.want {
			t.Fatalf("ScoreColor(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

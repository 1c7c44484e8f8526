package rules

import (
	"fmt"
	"time"

	"gigbook/internal/calendar"
	"gigbook/shared/go/config"
	"gigbook/shared/go/models"
)

// PaymentState is the display classification of a show's payment.
type PaymentState int

const (
	StatePaid PaymentState = iota
	StatePending
	StateNeedsInvoice
	StateOverdue
	StateUnpaid
)

func (s PaymentState) String() string {
	switch s {
	case StatePaid:
		return "paid"
	case StatePending:
		return "pending"
	case StateNeedsInvoice:
		return "needs_invoice"
	case StateOverdue:
		return "overdue"
	case StateUnpaid:
		return "unpaid"
	}
	return "unknown"
}

// Classification is a payment state plus, for past unpaid shows, the number
// of days since the show.
type Classification struct {
	State      PaymentState `json:"-"`
	DaysUnpaid int          `json:"days_unpaid"`
}

// Label renders the classification the way lists show it, e.g. "OVERDUE (45d)".
func (c Classification) Label() string {
	switch c.State {
	case StateOverdue:
		return fmt.Sprintf("OVERDUE (%dd)", c.DaysUnpaid)
	case StateUnpaid:
		return fmt.Sprintf("UNPAID (%dd)", c.DaysUnpaid)
	case StateNeedsInvoice:
		return fmt.Sprintf("NEEDS INVOICE (%dd)", c.DaysUnpaid)
	}
	return c.State.String()
}

// IsAlert reports whether the state needs action: overdue or needs invoice.
func (c Classification) IsAlert() bool {
	return c.State == StateOverdue || c.State == StateNeedsInvoice
}

// CheckShow verifies a show's record invariants.
func CheckShow(show *models.Show) error {
	fail := func(invariant, detail string) error {
		return &RecordError{ShowID: show.ID, Invariant: invariant, Detail: detail}
	}

	if show.VenueID == nil && (show.VenueNameSnapshot == nil || *show.VenueNameSnapshot == "") {
		return fail(InvariantOrphanReference, "no venue and no venue name snapshot")
	}
	if !show.InvoiceSent && show.InvoiceSentDate != nil {
		return fail(InvariantInvoiceDate, "invoice sent date set but invoice not sent")
	}

	switch show.PaymentStatus {
	case models.PaymentPending:
		if show.PaymentReceivedDate != nil {
			return fail(InvariantReceivedPending, "payment received date set on pending show")
		}
	case models.PaymentPaid:
		if show.PaymentReceivedDate != nil && calendar.DateOf(*show.PaymentReceivedDate).Before(calendar.DateOf(show.Date)) {
			return fail(InvariantReceivedBefore, "payment received before show date")
		}
	default:
		return fail(InvariantPaymentStatus, fmt.Sprintf("payment status %q", show.PaymentStatus))
	}
	return nil
}

// Classify assigns a payment state to show. The first matching rule wins:
// paid, then future or today, then needs invoice, then overdue or unpaid by
// age. venue may be nil for a show detached from a deleted venue.
func Classify(show *models.Show, venue *models.Venue, today time.Time, th config.Thresholds) (Classification, error) {
	if err := CheckShow(show); err != nil {
		return Classification{}, err
	}

	if show.PaymentStatus == models.PaymentPaid {
		return Classification{State: StatePaid}, nil
	}

	date := calendar.DateOf(show.Date)
	today = calendar.DateOf(today)
	if !date.Before(today) {
		return Classification{State: StatePending}, nil
	}

	days := calendar.DaysBetween(date, today)
	if venue != nil && venue.RequiresInvoice && !show.InvoiceSent {
		return Classification{State: StateNeedsInvoice, DaysUnpaid: days}, nil
	}
	if days >= th.PaymentOverdueDays {
		return Classification{State: StateOverdue, DaysUnpaid: days}, nil
	}
	return Classification{State: StateUnpaid, DaysUnpaid: days}, nil
}

// UnpaidBalance sums the pay of past, pending, non-cancelled shows.
func UnpaidBalance(shows []models.Show, today time.Time) float64 {
	today = calendar.DateOf(today)
	var total float64
	for i := range shows {
		s := &shows[i]
		if s.IsCancelled || s.PaymentStatus != models.PaymentPending {
			continue
		}
		if calendar.DateOf(s.Date).Before(today) {
			total += s.Pay()
		}
	}
	return total
}

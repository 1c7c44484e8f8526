// Package scoring ranks venues by how much attention they need and assigns
// each one to at most one report section.
package scoring

import (
	"fmt"
	"time"

	"gigbook/internal/calendar"
	"gigbook/internal/rules"
	"gigbook/shared/go/config"
	"gigbook/shared/go/models"
)

// Section is a top-level grouping of the report.
type Section string

const (
	SectionNone        Section = ""
	SectionGetPaid     Section = "get_paid"
	SectionBookShows   Section = "book_shows"
	SectionStayInTouch Section = "stay_in_touch"
)

// Reason explains one contribution to a venue's score.
type Reason string

const (
	ReasonPaymentOverdue    Reason = "payment_overdue"
	ReasonInvoiceNeeded     Reason = "invoice_needed"
	ReasonBookingWindowOpen Reason = "booking_window_open"
	ReasonBookingWindowSoon Reason = "booking_window_soon"
	ReasonNoUpcomingShows   Reason = "no_upcoming_shows"
	ReasonFewUpcomingShows  Reason = "few_upcoming_shows"
	ReasonContactNever      Reason = "contact_never"
	ReasonContactStale      Reason = "contact_stale"
	ReasonContactDue        Reason = "contact_due"
)

// Score weights.
const (
	weightFirstOverdue    = 35
	weightExtraOverdue    = 15
	weightFirstInvoice    = 30
	weightExtraInvoice    = 10
	weightWindowOpen      = 25
	weightWindowImminent  = 20
	weightWindowSoon      = 10
	weightNoUpcoming      = 10
	weightFewUpcoming     = 5
	weightContactStale    = 5
	weightContactReminder = 3
)

// Input is one venue with the records that reference it.
type Input struct {
	Venue    models.Venue
	Shows    []models.Show
	Contacts []models.ContactLog
}

// ShowAlert is a single show that needs payment follow-up.
type ShowAlert struct {
	ShowID     int64     `json:"show_id"`
	VenueID    *int64    `json:"venue_id,omitempty"`
	VenueName  string    `json:"venue_name"`
	Date       time.Time `json:"date"`
	Amount     float64   `json:"amount"`
	State      string    `json:"state"`
	DaysUnpaid int       `json:"days_unpaid"`
	Label      string    `json:"label"`
}

// NewShowAlert builds an alert for a classified show.
func NewShowAlert(show *models.Show, venue *models.Venue, c rules.Classification) ShowAlert {
	return ShowAlert{
		ShowID:     show.ID,
		VenueID:    show.VenueID,
		VenueName:  show.DisplayName(venue),
		Date:       show.Date,
		Amount:     show.Pay(),
		State:      c.State.String(),
		DaysUnpaid: c.DaysUnpaid,
		Label:      c.Label(),
	}
}

// VenueScore is the scored result for one venue.
type VenueScore struct {
	VenueID   int64    `json:"venue_id"`
	VenueName string   `json:"venue_name"`
	Score     int      `json:"score"`
	Color     string   `json:"color"`
	Section   Section  `json:"section,omitempty"`
	Reasons   []Reason `json:"reason_codes"`

	OverdueCount      int     `json:"overdue_count"`
	InvoiceCount      int     `json:"invoice_count"`
	OverdueAmount     float64 `json:"overdue_amount"`
	OldestInvoiceDays int     `json:"oldest_invoice_days"`
	WindowOpen        bool    `json:"window_open"`
	DaysUntilOpen     *int    `json:"days_until_open,omitempty"`
	UpcomingShows     int     `json:"upcoming_shows"`
	DaysSinceContact  *int    `json:"days_since_contact,omitempty"`
	ContactSuppressed bool    `json:"contact_suppressed"`

	Alerts []ShowAlert `json:"alerts,omitempty"`
}

// ItemError is a record that could not be scored. Scoring continues with
// the remaining records.
type ItemError struct {
	VenueID int64 `json:"venue_id"`
	ShowID  int64 `json:"show_id,omitempty"`
	Err     error `json:"-"`
}

func (e ItemError) Error() string {
	if e.ShowID != 0 {
		return fmt.Sprintf("venue %d show %d: %v", e.VenueID, e.ShowID, e.Err)
	}
	return fmt.Sprintf("venue %d: %v", e.VenueID, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// ScoreColor buckets a score for display.
func ScoreColor(score int) string {
	switch {
	case score >= 50:
		return "red"
	case score >= 25:
		return "yellow"
	default:
		return "green"
	}
}

// ScoreVenue scores one venue. Shows that fail consistency checks and an
// invalid booking window are returned as item errors; the remaining signals
// are still scored.
func ScoreVenue(in Input, today time.Time, th config.Thresholds) (VenueScore, []ItemError) {
	today = calendar.DateOf(today)
	venue := &in.Venue
	vs := VenueScore{VenueID: venue.ID, VenueName: venue.Name}
	var itemErrs []ItemError

	// Payment
	for i := range in.Shows {
		show := &in.Shows[i]
		if show.IsCancelled {
			continue
		}
		if !calendar.DateOf(show.Date).Before(today) {
			vs.UpcomingShows++
		}
		c, err := rules.Classify(show, venue, today, th)
		if err != nil {
			itemErrs = append(itemErrs, ItemError{VenueID: venue.ID, ShowID: show.ID, Err: err})
			continue
		}

		switch c.State {
		case rules.StateOverdue:
			vs.OverdueCount++
			vs.OverdueAmount += show.Pay()
		case rules.StateNeedsInvoice:
			vs.InvoiceCount++
			if c.DaysUnpaid > vs.OldestInvoiceDays {
				vs.OldestInvoiceDays = c.DaysUnpaid
			}
		default:
			continue
		}
		vs.Alerts = append(vs.Alerts, NewShowAlert(show, venue, c))
	}

	if vs.OverdueCount > 0 {
		vs.add(weightFirstOverdue+weightExtraOverdue*(vs.OverdueCount-1), ReasonPaymentOverdue)
	}
	if vs.InvoiceCount > 0 {
		vs.add(weightFirstInvoice+weightExtraInvoice*(vs.InvoiceCount-1), ReasonInvoiceNeeded)
	}

	// Booking
	if err := vs.scoreBooking(venue, today, th); err != nil {
		itemErrs = append(itemErrs, ItemError{VenueID: venue.ID, Err: err})
	}

	// Low activity
	switch {
	case vs.UpcomingShows == 0:
		vs.add(weightNoUpcoming, ReasonNoUpcomingShows)
	case vs.UpcomingShows <= th.LowShowCount:
		vs.add(weightFewUpcoming, ReasonFewUpcomingShows)
	}

	// Contact
	vs.ContactSuppressed = rules.IsSuppressed(in.Contacts, today, th)
	since, contacted := rules.DaysSinceContact(in.Contacts, today)
	if contacted {
		vs.DaysSinceContact = &since
	}
	if !vs.ContactSuppressed {
		switch {
		case !contacted:
			vs.add(weightContactStale, ReasonContactNever)
		case since >= th.ContactStaleDays:
			vs.add(weightContactStale, ReasonContactStale)
		case since >= th.ContactReminderDays:
			vs.add(weightContactReminder, ReasonContactDue)
		}
	}

	vs.Color = ScoreColor(vs.Score)
	vs.Section = assignSection(&vs, in.Contacts, today, th)
	return vs, itemErrs
}

// scoreBooking adds the booking window signals. On an invalid window it
// leaves the score untouched.
func (vs *VenueScore) scoreBooking(venue *models.Venue, today time.Time, th config.Thresholds) error {
	open, err := rules.IsOpen(venue, today)
	if err != nil {
		return err
	}
	days, ok, err := rules.DaysUntilOpen(venue, today)
	if err != nil {
		return err
	}
	vs.WindowOpen = open
	if ok {
		vs.DaysUntilOpen = &days
	}
	switch {
	case open:
		vs.add(weightWindowOpen, ReasonBookingWindowOpen)
	case ok && days <= th.BookingWindowImminentDays:
		vs.add(weightWindowImminent, ReasonBookingWindowSoon)
	case ok && days <= th.BookingWindowAlertDays:
		vs.add(weightWindowSoon, ReasonBookingWindowSoon)
	}
	return nil
}

func (vs *VenueScore) add(points int, reason Reason) {
	vs.Score += points
	vs.Reasons = append(vs.Reasons, reason)
}

// assignSection picks the first matching section. A nonzero score with no
// primary trigger gets no section.
func assignSection(vs *VenueScore, contacts []models.ContactLog, today time.Time, th config.Thresholds) Section {
	switch {
	case vs.Score == 0:
		return SectionNone
	case vs.OverdueCount > 0 || vs.InvoiceCount > 0:
		return SectionGetPaid
	case vs.WindowOpen || vs.DaysUntilOpen != nil:
		return SectionBookShows
	case rules.ContactDue(contacts, today, th):
		return SectionStayInTouch
	}
	return SectionNone
}

// ScoreAll scores every venue, collecting per-record failures.
func ScoreAll(inputs []Input, today time.Time, th config.Thresholds) ([]VenueScore, []ItemError) {
	scores := make([]VenueScore, 0, len(inputs))
	var itemErrs []ItemError
	for _, in := range inputs {
		vs, errs := ScoreVenue(in, today, th)
		itemErrs = append(itemErrs, errs...)
		scores = append(scores, vs)
	}
	return scores, itemErrs
}

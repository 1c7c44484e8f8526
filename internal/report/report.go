// Package report assembles scored venues into the action report.
package report

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"gigbook/internal/calendar"
	"gigbook/internal/rules"
	"gigbook/internal/scoring"
	"gigbook/shared/go/config"
	"gigbook/shared/go/models"
)

// Input is everything the report reads. DetachedShows are shows whose venue
// was deleted; they still produce payment alerts.
type Input struct {
	Venues        []scoring.Input
	DetachedShows []models.Show
}

// Entry is one venue line in a section.
type Entry struct {
	VenueID   int64            `json:"venue_id"`
	VenueName string           `json:"venue_name"`
	Score     int              `json:"score"`
	Color     string           `json:"color"`
	Reasons   []scoring.Reason `json:"reason_codes"`

	overdueAmount float64
	invoiceAge    int
}

// Problem is a record left out of the report because it failed validation.
type Problem struct {
	VenueID int64  `json:"venue_id,omitempty"`
	ShowID  int64  `json:"show_id,omitempty"`
	Orphan  bool   `json:"orphan,omitempty"`
	Error   string `json:"error"`
}

// Summary holds the report's headline counts.
type Summary struct {
	PaymentIssues     int     `json:"payment_issues"`
	BookingPriorities int     `json:"booking_priorities"`
	ContactReminders  int     `json:"contact_reminders"`
	Unsectioned       int     `json:"unsectioned"`
	UnpaidBalance     float64 `json:"unpaid_balance"`
	Errors            int     `json:"errors"`
}

// Report is the assembled action report.
type Report struct {
	Date          time.Time           `json:"date"`
	GetPaid       []Entry             `json:"get_paid"`
	BookShows     []Entry             `json:"book_shows"`
	StayInTouch   []Entry             `json:"stay_in_touch"`
	Unsectioned   []Entry             `json:"unsectioned"`
	PaymentAlerts []scoring.ShowAlert `json:"payment_alerts"`
	Problems      []Problem           `json:"problems,omitempty"`
	Summary       Summary             `json:"summary"`
}

// Empty reports whether there is nothing to act on.
func (r *Report) Empty() bool {
	return len(r.GetPaid) == 0 && len(r.BookShows) == 0 && len(r.StayInTouch) == 0 && len(r.PaymentAlerts) == 0
}

// Assemble scores every venue and groups the results into sections.
func Assemble(in Input, today time.Time, th config.Thresholds) *Report {
	today = calendar.DateOf(today)
	r := &Report{
		Date:          today,
		GetPaid:       []Entry{},
		BookShows:     []Entry{},
		StayInTouch:   []Entry{},
		Unsectioned:   []Entry{},
		PaymentAlerts: []scoring.ShowAlert{},
	}

	scores, itemErrs := scoring.ScoreAll(in.Venues, today, th)
	for _, e := range itemErrs {
		r.addProblem(e.VenueID, e.ShowID, e.Err)
	}

	for _, vs := range scores {
		r.PaymentAlerts = append(r.PaymentAlerts, vs.Alerts...)
		if vs.Score == 0 {
			continue
		}

		entry := Entry{
			VenueID:       vs.VenueID,
			VenueName:     vs.VenueName,
			Score:         vs.Score,
			Color:         vs.Color,
			Reasons:       vs.Reasons,
			overdueAmount: vs.OverdueAmount,
			invoiceAge:    vs.OldestInvoiceDays,
		}
		switch vs.Section {
		case scoring.SectionGetPaid:
			r.GetPaid = append(r.GetPaid, entry)
		case scoring.SectionBookShows:
			r.BookShows = append(r.BookShows, entry)
		case scoring.SectionStayInTouch:
			r.StayInTouch = append(r.StayInTouch, entry)
		default:
			r.Unsectioned = append(r.Unsectioned, entry)
		}
	}

	for i := range in.DetachedShows {
		show := &in.DetachedShows[i]
		if show.IsCancelled {
			continue
		}
		c, err := rules.Classify(show, nil, today, th)
		if err != nil {
			r.addProblem(0, show.ID, err)
			continue
		}
		if c.IsAlert() {
			r.PaymentAlerts = append(r.PaymentAlerts, scoring.NewShowAlert(show, nil, c))
		}
	}

	slices.SortStableFunc(r.GetPaid, compareMoneyFirst)
	slices.SortStableFunc(r.BookShows, compareScore)
	slices.SortStableFunc(r.StayInTouch, compareScore)
	slices.SortStableFunc(r.Unsectioned, compareScore)
	slices.SortStableFunc(r.PaymentAlerts, func(a, b scoring.ShowAlert) int {
		if c := cmp.Compare(b.DaysUnpaid, a.DaysUnpaid); c != 0 {
			return c
		}
		return cmp.Compare(a.ShowID, b.ShowID)
	})

	var all []models.Show
	for _, v := range in.Venues {
		all = append(all, v.Shows...)
	}
	all = append(all, in.DetachedShows...)

	r.Summary = Summary{
		PaymentIssues:     len(r.PaymentAlerts),
		BookingPriorities: len(r.BookShows),
		ContactReminders:  len(r.StayInTouch),
		Unsectioned:       len(r.Unsectioned),
		UnpaidBalance:     rules.UnpaidBalance(all, today),
		Errors:            len(r.Problems),
	}
	return r
}

func (r *Report) addProblem(venueID, showID int64, err error) {
	r.Problems = append(r.Problems, Problem{
		VenueID: venueID,
		ShowID:  showID,
		Orphan:  rules.IsOrphan(err),
		Error:   err.Error(),
	})
}

// compareMoneyFirst orders by overdue amount, then oldest unsent invoice,
// then score.
func compareMoneyFirst(a, b Entry) int {
	if c := cmp.Compare(b.overdueAmount, a.overdueAmount); c != 0 {
		return c
	}
	if c := cmp.Compare(b.invoiceAge, a.invoiceAge); c != 0 {
		return c
	}
	return compareScore(a, b)
}

func compareScore(a, b Entry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return strings.Compare(a.VenueName, b.VenueName)
}

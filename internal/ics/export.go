// Package ics converts between shows and iCalendar data.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

// ExportOptions controls which shows are exported.
type ExportOptions struct {
	// FutureOnly drops shows dated before Today.
	FutureOnly bool
	Today      time.Time
	// Now stamps DTSTAMP; defaults to the current time.
	Now time.Time
}

// ShowUID is the stable event UID for a show.
func ShowUID(id int64) string {
	return fmt.Sprintf("gigbook-show-%d@gigbook.local", id)
}

// Export writes non-cancelled shows as all-day events and returns how many
// were written. venues resolves names and addresses by venue id.
func Export(w io.Writer, shows []*models.Show, venues map[int64]*models.Venue, opts ExportOptions) (int, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	today := calendar.DateOf(opts.Today)

	cal := ical.NewCalendar()
	cal.SetProductId("-//gigbook//EN")
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName("gigbook shows")

	count := 0
	for _, show := range shows {
		if show.IsCancelled {
			continue
		}
		if opts.FutureOnly && show.Date.Before(today) {
			continue
		}

		var venue *models.Venue
		if show.VenueID != nil {
			venue = venues[*show.VenueID]
		}

		ev := cal.AddEvent(ShowUID(show.ID))
		ev.SetDtStampTime(opts.Now.UTC())
		ev.SetSummary(Summary(show, venue))
		ev.SetAllDayStartAt(show.Date)
		ev.SetAllDayEndAt(calendar.AddDays(show.Date, 1))
		if venue != nil && venue.Address != "" {
			ev.SetLocation(venue.Address)
		}
		if desc := description(show); desc != "" {
			ev.SetDescription(desc)
		}
		count++
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return 0, fmt.Errorf("write calendar: %w", err)
	}
	return count, nil
}

// Summary is the event title: the venue name followed by the pay.
func Summary(show *models.Show, venue *models.Venue) string {
	name := show.DisplayName(venue)
	if show.Pay() > 0 {
		return fmt.Sprintf("%s ($%.0f)", name, show.Pay())
	}
	return name
}

func description(show *models.Show) string {
	var parts []string
	if show.Pay() > 0 {
		parts = append(parts, fmt.Sprintf("Pay: $%.2f", show.Pay()))
	}
	if show.PaymentStatus != "" {
		parts = append(parts, "Status: "+string(show.PaymentStatus))
	}
	if show.Notes != "" {
		parts = append(parts, "Notes: "+show.Notes)
	}
	return strings.Join(parts, "\n")
}

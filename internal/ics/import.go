package ics

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog/log"
	"github.com/teambition/rrule-go"

	"gigbook/internal/calendar"
	"gigbook/internal/recurrence"
)

var (
	// ErrEmptyCalendar is returned for input without any events.
	ErrEmptyCalendar = errors.New("calendar has no events")
	// ErrInvalidCalendar is returned for unreadable input or a bad window.
	ErrInvalidCalendar = errors.New("invalid calendar import")
)

// Proposal describes what one VEVENT would become. Importing only proposes;
// records are created through the regular venue, show and gig operations.
type Proposal struct {
	UID       string    `json:"uid"`
	Summary   string    `json:"summary"`
	VenueName string    `json:"venue_name"`
	Location  string    `json:"location,omitempty"`
	PayAmount *float64  `json:"pay_amount,omitempty"`
	Start     time.Time `json:"start"`

	// Template is set when the event's RRULE maps onto a gig pattern.
	Template *Template `json:"template,omitempty"`
	// ExpandReason is set when a recurring event has to be imported as
	// individual shows.
	ExpandReason string `json:"expand_reason,omitempty"`
	// Dates are the event's days within the import window.
	Dates []time.Time `json:"dates"`
}

// Recurring reports whether the event carried an RRULE.
func (p *Proposal) Recurring() bool {
	return p.Template != nil || p.ExpandReason != ""
}

// Skipped is a VEVENT that could not be read.
type Skipped struct {
	UID    string `json:"uid,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult lists proposals in calendar order.
type ImportResult struct {
	Proposals []Proposal `json:"proposals"`
	Skipped   []Skipped  `json:"skipped,omitempty"`
}

// Import reads a calendar and proposes shows or recurring gigs for each
// event, with dates limited to [from, to].
func Import(r io.Reader, from, to time.Time) (*ImportResult, error) {
	from, to = calendar.DateOf(from), calendar.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: window ends %s before it starts %s", ErrInvalidCalendar,
			to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCalendar, err)
	}
	events := cal.Events()
	if len(events) == 0 {
		return nil, ErrEmptyCalendar
	}

	res := &ImportResult{}
	for _, ev := range events {
		p, err := propose(ev, from, to)
		if err != nil {
			uid := propValue(ev, ical.ComponentPropertyUniqueId)
			log.Warn().Err(err).Str("uid", uid).Msg("Skipping calendar event")
			res.Skipped = append(res.Skipped, Skipped{UID: uid, Reason: err.Error()})
			continue
		}
		res.Proposals = append(res.Proposals, *p)
	}
	return res, nil
}

func propose(ev *ical.VEvent, from, to time.Time) (*Proposal, error) {
	start, err := eventStart(ev)
	if err != nil {
		return nil, err
	}

	p := &Proposal{
		UID:      propValue(ev, ical.ComponentPropertyUniqueId),
		Summary:  propValue(ev, ical.ComponentPropertySummary),
		Location: propValue(ev, ical.ComponentPropertyLocation),
		Start:    start,
	}
	p.VenueName, p.PayAmount = splitSummary(p.Summary)
	if p.VenueName == "" {
		return nil, errors.New("missing summary")
	}

	rule := propValue(ev, ical.ComponentPropertyRrule)
	if rule == "" {
		if d := calendar.DateOf(start); !d.Before(from) && !d.After(to) {
			p.Dates = []time.Time{d}
		}
		return p, nil
	}

	exdates := exceptionDates(ev)
	m := Classify(rule, start)
	if !m.Expand() && len(exdates) > 0 {
		m = Mapping{Reason: ReasonExceptions}
	}

	if !m.Expand() {
		p.Template = m.Template
		seq, err := recurrence.Occurrences(m.Template.Gig(0, start), from, to)
		if err != nil {
			return nil, fmt.Errorf("mapped rule %q: %w", rule, err)
		}
		p.Dates = recurrence.Dates(seq)
		return p, nil
	}

	p.ExpandReason = m.Reason
	if m.Reason == ReasonUnparseable {
		return nil, fmt.Errorf("unparseable RRULE %q", rule)
	}
	p.Dates, err = expand(rule, start, exdates, from, to)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// expand lists the days rule produces within [from, to].
func expand(rule string, start time.Time, exdates []time.Time, from, to time.Time) ([]time.Time, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", rule, err)
	}
	opt.Dtstart = start
	rr, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build RRULE %q: %w", rule, err)
	}

	var set rrule.Set
	set.RRule(rr)
	for _, ex := range exdates {
		set.ExDate(ex.In(start.Location()))
	}

	// Widen by a day on each side; instants are filtered by their own calendar day.
	var dates []time.Time
	for _, t := range set.Between(calendar.AddDays(from, -1), calendar.AddDays(to, 2), true) {
		d := calendar.DateOf(t)
		if d.Before(from) || d.After(to) {
			continue
		}
		if n := len(dates); n > 0 && dates[n-1].Equal(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func eventStart(ev *ical.VEvent) (time.Time, error) {
	if t, err := ev.GetStartAt(); err == nil {
		return t, nil
	}
	prop := ev.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil || prop.Value == "" {
		return time.Time{}, errors.New("missing DTSTART")
	}
	return parseTime(prop.Value)
}

func exceptionDates(ev *ical.VEvent) []time.Time {
	var out []time.Time
	for _, prop := range ev.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(prop.Value, ",") {
			if t, err := parseTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseTime reads DATE and DATE-TIME values without parameter context.
func parseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}

func propValue(ev *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ev.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

var payPattern = regexp.MustCompile(`\(\$([0-9][0-9,]*(?:\.[0-9]+)?)\)\s*$`)

// splitSummary separates "Venue ($200)" into the venue name and pay.
func splitSummary(summary string) (string, *float64) {
	summary = strings.TrimSpace(summary)
	m := payPattern.FindStringSubmatchIndex(summary)
	if m == nil {
		return summary, nil
	}
	name := strings.TrimSpace(summary[:m[0]])
	pay, err := strconv.ParseFloat(strings.ReplaceAll(summary[m[2]:m[3]], ",", ""), 64)
	if err != nil {
		return name, nil
	}
	return name, &pay
}

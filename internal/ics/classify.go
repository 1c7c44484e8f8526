package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

// Template is a recurring gig pattern recovered from an RRULE.
type Template struct {
	PatternType   models.PatternType `json:"pattern_type"`
	DayOfWeek     *int               `json:"day_of_week,omitempty"`
	DayOfMonth    *int               `json:"day_of_month,omitempty"`
	Ordinal       *int               `json:"ordinal,omitempty"`
	IntervalWeeks *int               `json:"interval_weeks,omitempty"`
	EndDate       *time.Time         `json:"end_date,omitempty"`
}

// Gig returns a recurring gig for venueID following t, starting on start.
func (t *Template) Gig(venueID int64, start time.Time) *models.RecurringGig {
	return &models.RecurringGig{
		VenueID:       venueID,
		PatternType:   t.PatternType,
		DayOfWeek:     t.DayOfWeek,
		DayOfMonth:    t.DayOfMonth,
		Ordinal:       t.Ordinal,
		IntervalWeeks: t.IntervalWeeks,
		StartDate:     calendar.DateOf(start),
		EndDate:       t.EndDate,
		IsActive:      true,
	}
}

// Expansion reasons reported when a rule has no matching pattern.
const (
	ReasonUnparseable     = "unparseable_rule"
	ReasonFrequency       = "unsupported_frequency"
	ReasonMultipleDays    = "multiple_days"
	ReasonFromMonthEnd    = "relative_to_month_end"
	ReasonCount           = "count_limited"
	ReasonExceptions      = "has_exceptions"
	ReasonUnsupportedRule = "unsupported_rule"
)

// Mapping is the outcome of classifying an RRULE: either a Template or a
// reason the rule must be expanded into individual dates.
type Mapping struct {
	Template *Template
	Reason   string
}

// Expand reports whether the rule has to be expanded into occurrences.
func (m Mapping) Expand() bool {
	return m.Template == nil
}

// Classify maps rule onto one of the recurring gig patterns. Weekly rules
// map to weekly, biweekly or custom by interval; monthly rules by day of
// month or nth weekday map to monthly_date and monthly_ordinal. dtstart
// supplies the day when the rule omits BYDAY or BYMONTHDAY.
func Classify(rule string, dtstart time.Time) Mapping {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return Mapping{Reason: ReasonUnparseable}
	}
	if opt.Count > 0 {
		return Mapping{Reason: ReasonCount}
	}
	if len(opt.Bymonth) > 0 || len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 ||
		len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 || len(opt.Byeaster) > 0 {
		return Mapping{Reason: ReasonUnsupportedRule}
	}

	interval := opt.Interval
	if interval < 1 {
		interval = 1
	}

	var tmpl *Template
	var reason string
	switch opt.Freq {
	case rrule.WEEKLY:
		tmpl, reason = classifyWeekly(opt, interval, dtstart)
	case rrule.MONTHLY:
		tmpl, reason = classifyMonthly(opt, interval, dtstart)
	default:
		return Mapping{Reason: ReasonFrequency}
	}
	if tmpl == nil {
		return Mapping{Reason: reason}
	}

	if !opt.Until.IsZero() {
		end := calendar.DateOf(opt.Until)
		tmpl.EndDate = &end
	}
	return Mapping{Template: tmpl}
}

func classifyWeekly(opt *rrule.ROption, interval int, dtstart time.Time) (*Template, string) {
	if len(opt.Bymonthday) > 0 || len(opt.Bysetpos) > 0 {
		return nil, ReasonUnsupportedRule
	}

	var day int
	switch len(opt.Byweekday) {
	case 0:
		day = int(dtstart.Weekday())
	case 1:
		wd := opt.Byweekday[0]
		if wd.N() != 0 {
			return nil, ReasonUnsupportedRule
		}
		day = weekday(wd)
	default:
		return nil, ReasonMultipleDays
	}

	t := &Template{DayOfWeek: &day}
	switch interval {
	case 1:
		t.PatternType = models.PatternWeekly
	case 2:
		t.PatternType = models.PatternBiweekly
	default:
		t.PatternType = models.PatternCustom
		t.IntervalWeeks = &interval
	}
	return t, ""
}

func classifyMonthly(opt *rrule.ROption, interval int, dtstart time.Time) (*Template, string) {
	if interval != 1 {
		return nil, ReasonUnsupportedRule
	}

	switch {
	case len(opt.Bymonthday) > 0:
		if len(opt.Bymonthday) > 1 || len(opt.Byweekday) > 0 || len(opt.Bysetpos) > 0 {
			return nil, ReasonMultipleDays
		}
		dom := opt.Bymonthday[0]
		if dom < 1 || dom > 31 {
			return nil, ReasonFromMonthEnd
		}
		return &Template{PatternType: models.PatternMonthlyDate, DayOfMonth: &dom}, ""

	case len(opt.Byweekday) > 0:
		if len(opt.Byweekday) > 1 {
			return nil, ReasonMultipleDays
		}
		wd := opt.Byweekday[0]
		ordinal := wd.N()
		if ordinal == 0 {
			// FREQ=MONTHLY;BYDAY=TU;BYSETPOS=2
			if len(opt.Bysetpos) != 1 {
				return nil, ReasonUnsupportedRule
			}
			ordinal = opt.Bysetpos[0]
		} else if len(opt.Bysetpos) > 0 {
			return nil, ReasonUnsupportedRule
		}
		if ordinal < 0 {
			return nil, ReasonFromMonthEnd
		}
		if ordinal > 5 {
			return nil, ReasonUnsupportedRule
		}
		day := weekday(wd)
		return &Template{PatternType: models.PatternMonthlyOrdinal, DayOfWeek: &day, Ordinal: &ordinal}, ""

	case len(opt.Bysetpos) > 0:
		return nil, ReasonUnsupportedRule

	default:
		dom := dtstart.Day()
		return &Template{PatternType: models.PatternMonthlyDate, DayOfMonth: &dom}, ""
	}
}

// weekday converts rrule's Monday-first numbering to time.Weekday.
func weekday(wd rrule.Weekday) int {
	return (wd.Day() + 1) % 7
}

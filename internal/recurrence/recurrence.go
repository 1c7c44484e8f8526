// Package recurrence expands recurring gig definitions into occurrence dates.
package recurrence

import (
	"iter"
	"time"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

// Validate checks that the gig carries exactly what its pattern type needs.
// It is meant to run when a pattern is created or edited.
func Validate(gig *models.RecurringGig) error {
	if gig == nil {
		return invalid("", "", "recurring gig is required")
	}
	p := gig.PatternType

	switch p {
	case models.PatternWeekly, models.PatternBiweekly:
		if err := checkWeekday(p, gig.DayOfWeek); err != nil {
			return err
		}
	case models.PatternCustom:
		if err := checkWeekday(p, gig.DayOfWeek); err != nil {
			return err
		}
		if gig.IntervalWeeks == nil {
			return invalid(p, "interval_weeks", "is required")
		}
		if *gig.IntervalWeeks < 1 {
			return invalid(p, "interval_weeks", "must be at least 1")
		}
	case models.PatternMonthlyDate:
		if gig.DayOfMonth == nil {
			return invalid(p, "day_of_month", "is required")
		}
		if *gig.DayOfMonth < 1 || *gig.DayOfMonth > 31 {
			return invalid(p, "day_of_month", "must be between 1 and 31")
		}
	case models.PatternMonthlyOrdinal:
		if gig.Ordinal == nil {
			return invalid(p, "ordinal", "is required")
		}
		if *gig.Ordinal < 1 || *gig.Ordinal > 5 {
			return invalid(p, "ordinal", "must be between 1 and 5")
		}
		if err := checkWeekday(p, gig.DayOfWeek); err != nil {
			return err
		}
	default:
		return invalid(p, "pattern_type", "is not supported")
	}

	if gig.StartDate.IsZero() {
		return invalid(p, "start_date", "is required")
	}
	if gig.EndDate != nil && calendar.DateOf(*gig.EndDate).Before(calendar.DateOf(gig.StartDate)) {
		return invalid(p, "end_date", "must not precede start_date")
	}
	return nil
}

func checkWeekday(p models.PatternType, dow *int) error {
	if dow == nil {
		return invalid(p, "day_of_week", "is required")
	}
	if *dow < 0 || *dow > 6 {
		return invalid(p, "day_of_week", "must be between 0 and 6")
	}
	return nil
}

// Occurrences returns the occurrence dates of gig within [from, to], clipped
// to the gig's own start and end dates. The sequence is lazy and can be
// ranged over any number of times. Inactive gigs and windows that miss the
// gig entirely produce an empty sequence, not an error.
//
// Gigs are validated when created, so an error here only comes from a row
// written around the service, such as a manual SQL edit. The check guards the
// pattern field dereferences below.
func Occurrences(gig *models.RecurringGig, from, to time.Time) (iter.Seq[time.Time], error) {
	if err := Validate(gig); err != nil {
		return nil, err
	}
	if !gig.IsActive {
		return empty, nil
	}

	anchor := calendar.DateOf(gig.StartDate)
	start := calendar.Max(calendar.DateOf(from), anchor)
	end := calendar.DateOf(to)
	if gig.EndDate != nil {
		end = calendar.Min(end, calendar.DateOf(*gig.EndDate))
	}
	if start.After(end) {
		return empty, nil
	}

	switch gig.PatternType {
	case models.PatternWeekly:
		return weekly(anchor, time.Weekday(*gig.DayOfWeek), 1, start, end), nil
	case models.PatternBiweekly:
		return weekly(anchor, time.Weekday(*gig.DayOfWeek), 2, start, end), nil
	case models.PatternCustom:
		return weekly(anchor, time.Weekday(*gig.DayOfWeek), *gig.IntervalWeeks, start, end), nil
	case models.PatternMonthlyDate:
		return monthlyDate(*gig.DayOfMonth, start, end), nil
	default:
		return monthlyOrdinal(*gig.Ordinal, time.Weekday(*gig.DayOfWeek), start, end), nil
	}
}

// Dates collects a sequence into a slice.
func Dates(seq iter.Seq[time.Time]) []time.Time {
	var out []time.Time
	for d := range seq {
		out = append(out, d)
	}
	return out
}

func empty(func(time.Time) bool) {}

// weekly steps interval weeks from the first weekday on or after anchor.
func weekly(anchor time.Time, weekday time.Weekday, interval int, start, end time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		step := 7 * interval
		first := calendar.AddDays(anchor, (int(weekday)-int(anchor.Weekday())+7)%7)

		cur := first
		if start.After(first) {
			skipped := calendar.DaysBetween(first, start) / step
			cur = calendar.AddDays(first, skipped*step)
			for cur.Before(start) {
				cur = calendar.AddDays(cur, step)
			}
		}

		for ; !cur.After(end); cur = calendar.AddDays(cur, step) {
			if !yield(cur) {
				return
			}
		}
	}
}

// monthlyDate yields day (clamped to month length) of each month.
func monthlyDate(day int, start, end time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for m := range calendar.Months(start, end) {
			d := calendar.Date(m.Year(), m.Month(), calendar.ClampDayOfMonth(day, m.Year(), m.Month()))
			if d.Before(start) || d.After(end) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// monthlyOrdinal yields the nth weekday of each month, skipping months
// that do not have one.
func monthlyOrdinal(ordinal int, weekday time.Weekday, start, end time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for m := range calendar.Months(start, end) {
			d, ok := calendar.NthWeekdayOfMonth(ordinal, weekday, m.Year(), m.Month())
			if !ok || d.Before(start) || d.After(end) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

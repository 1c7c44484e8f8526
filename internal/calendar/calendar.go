// Package calendar provides calendar-day arithmetic.
//
// A date is a time.Time at 00:00 UTC naming a civil day. Functions never look
// at instants or time zones beyond taking the calendar day of an input.
package calendar

import (
	"iter"
	"time"
)

// Date builds the civil date y-m-d. Out of range values normalize like time.Date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar day.
func Today() time.Time {
	return DateOf(time.Now())
}

// AddDays moves d by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	d = DateOf(d)
	return Date(d.Year(), d.Month(), d.Day()+n)
}

// DaysBetween returns the whole calendar-day difference b - a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// LastDayOfMonth returns the number of days in the month (28..31).
func LastDayOfMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return Date(year, month+1, 0).Day()
}

// ClampDayOfMonth limits day to the last valid day of the month.
func ClampDayOfMonth(day, year int, month time.Month) int {
	if last := LastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}

// NthWeekdayOfMonth returns the ordinal-th (1..5) weekday of the month.
// ok is false when the month has fewer occurrences, e.g. a fifth Saturday.
func NthWeekdayOfMonth(ordinal int, weekday time.Weekday, year int, month time.Month) (time.Time, bool) {
	if ordinal < 1 || ordinal > 5 {
		return time.Time{}, false
	}
	first := Date(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + 7*(ordinal-1)
	if day > LastDayOfMonth(year, month) {
		return time.Time{}, false
	}
	return Date(year, month, day), true
}

// Months yields the first day of every month from the month of from through
// the month of to, inclusive.
func Months(from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		end := DateOf(to)
		for cur := Date(from.Year(), from.Month(), 1); !cur.After(end); cur = Date(cur.Year(), cur.Month()+1, 1) {
			if !yield(cur) {
				return
			}
		}
	}
}

// Min returns the earlier of two dates.
func Min(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// Max returns the later of two dates.
func Max(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

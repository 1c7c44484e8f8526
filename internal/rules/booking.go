package rules

import (
	"fmt"
	"time"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

// ValidateWindow checks a venue's booking window bounds. An unset end is
// accepted and read as a single-day window.
func ValidateWindow(v *models.Venue) error {
	if v.BookingWindowStart == nil {
		if v.BookingWindowEnd != nil {
			return fmt.Errorf("%w: end day set without start day", ErrInvalidWindow)
		}
		return nil
	}
	if d := *v.BookingWindowStart; d < 1 || d > 31 {
		return fmt.Errorf("%w: start day %d out of range", ErrInvalidWindow, d)
	}
	if v.BookingWindowEnd != nil {
		if d := *v.BookingWindowEnd; d < 1 || d > 31 {
			return fmt.Errorf("%w: end day %d out of range", ErrInvalidWindow, d)
		}
	}
	return nil
}

func windowBounds(v *models.Venue) (start, end int) {
	start = *v.BookingWindowStart
	end = start
	if v.BookingWindowEnd != nil {
		end = *v.BookingWindowEnd
	}
	return start, end
}

// IsOpen reports whether today's day of month falls inside the venue's
// booking window. A window whose start is after its end wraps across the
// month boundary.
func IsOpen(v *models.Venue, today time.Time) (bool, error) {
	if err := ValidateWindow(v); err != nil {
		return false, err
	}
	if !v.HasBookingWindow() {
		return false, nil
	}

	start, end := windowBounds(v)
	day := today.Day()
	if start <= end {
		return start <= day && day <= end, nil
	}
	return day >= start || day <= end, nil
}

// DaysUntilOpen returns the days until the venue's window next opens. ok is
// false when no window is configured or the window is open now. A window that
// opens next month is approximated using the current month's length.
func DaysUntilOpen(v *models.Venue, today time.Time) (days int, ok bool, err error) {
	open, err := IsOpen(v, today)
	if err != nil || open || !v.HasBookingWindow() {
		return 0, false, err
	}

	start := *v.BookingWindowStart
	day := today.Day()
	if day < start {
		return start - day, true, nil
	}
	left := calendar.LastDayOfMonth(today.Year(), today.Month()) - day
	return left + start, true, nil
}

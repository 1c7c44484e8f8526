package models

import "time"

// PatternType identifies how a recurring gig repeats
type PatternType string

const (
	PatternWeekly         PatternType = "weekly"
	PatternBiweekly       PatternType = "biweekly"
	PatternMonthlyDate    PatternType = "monthly_date"
	PatternMonthlyOrdinal PatternType = "monthly_ordinal"
	PatternCustom         PatternType = "custom"
)

// RecurringGig is a repeating booking that generates shows.
//
// DayOfWeek uses time.Weekday numbering (0 = Sunday). Which of the pattern
// fields are required depends on PatternType.
type RecurringGig struct {
	ID            int64       `json:"id"`
	VenueID       int64       `json:"venue_id"`
	PayAmount     *float64    `json:"pay_amount,omitempty"`
	PatternType   PatternType `json:"pattern_type"`
	DayOfWeek     *int        `json:"day_of_week,omitempty"`
	DayOfMonth    *int        `json:"day_of_month,omitempty"`
	Ordinal       *int        `json:"ordinal,omitempty"`
	IntervalWeeks *int        `json:"interval_weeks,omitempty"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       *time.Time  `json:"end_date,omitempty"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

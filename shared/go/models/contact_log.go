package models

import "time"

// ContactMethod is how a venue was contacted
type ContactMethod string

const (
	ContactEmail    ContactMethod = "email"
	ContactPhone    ContactMethod = "phone"
	ContactInPerson ContactMethod = "in_person"
	ContactOther    ContactMethod = "other"
)

// Valid reports whether m is a known contact method.
func (m ContactMethod) Valid() bool {
	switch m {
	case ContactEmail, ContactPhone, ContactInPerson, ContactOther:
		return true
	}
	return false
}

// ContactOutcome records what came of an outreach attempt
type ContactOutcome string

const (
	OutcomeBooked           ContactOutcome = "booked"
	OutcomeDeclined         ContactOutcome = "declined"
	OutcomeAwaitingResponse ContactOutcome = "awaiting_response"
	OutcomeFollowUpNeeded   ContactOutcome = "follow_up_needed"
	OutcomeOther            ContactOutcome = "other"
)

// Valid reports whether o is a known outcome. The empty value means no outcome.
func (o ContactOutcome) Valid() bool {
	switch o {
	case "", OutcomeBooked, OutcomeDeclined, OutcomeAwaitingResponse,
		OutcomeFollowUpNeeded, OutcomeOther:
		return true
	}
	return false
}

// ContactLog is an append-only record of outreach to a venue. It outlives
// the venue it references.
type ContactLog struct {
	ID           int64          `json:"id"`
	VenueID      int64          `json:"venue_id"`
	ContactedAt  time.Time      `json:"contacted_at"`
	Method       ContactMethod  `json:"method"`
	Outcome      ContactOutcome `json:"outcome,omitempty"`
	FollowUpDate *time.Time     `json:"follow_up_date,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

package models

import "time"

// PaymentStatus is the stored payment state of a show
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// UnknownVenueName is shown for a show that lost both its venue and snapshot.
const UnknownVenueName = "Unknown Venue"

// Show represents a single performance
type Show struct {
	ID             int64  `json:"id"`
	VenueID        *int64 `json:"venue_id,omitempty"`         // Cleared when the venue is deleted
	RecurringGigID *int64 `json:"recurring_gig_id,omitempty"` // Set for generated instances

	// VenueNameSnapshot keeps the venue name for shows detached from a deleted venue.
	VenueNameSnapshot *string `json:"venue_name_snapshot,omitempty"`

	Date                time.Time     `json:"date"`
	PayAmount           *float64      `json:"pay_amount,omitempty"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	PaymentReceivedDate *time.Time    `json:"payment_received_date,omitempty"`
	InvoiceSent         bool          `json:"invoice_sent"`
	InvoiceSentDate     *time.Time    `json:"invoice_sent_date,omitempty"`
	IsCancelled         bool          `json:"is_cancelled"`
	Notes               string        `json:"notes,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// DisplayName returns the venue name for the show, falling back to the snapshot.
func (s *Show) DisplayName(venue *Venue) string {
	if venue != nil {
		return venue.Name
	}
	if s.VenueNameSnapshot != nil && *s.VenueNameSnapshot != "" {
		return *s.VenueNameSnapshot
	}
	return UnknownVenueName
}

// Pay returns the pay amount or zero when unset.
func (s *Show) Pay() float64 {
	if s.PayAmount == nil {
		return 0
	}
	return *s.PayAmount
}

// ShowFilter narrows show listings. Zero values mean no constraint.
type ShowFilter struct {
	VenueID        *int64
	RecurringGigID *int64
	FromDate       *time.Time // Inclusive
	ToDate         *time.Time // Inclusive
}

package models

import "time"

// PaymentMethod is how a venue usually pays.
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCheck         PaymentMethod = "check"
	PaymentMethodVenmo         PaymentMethod = "venmo"
	PaymentMethodCashApp       PaymentMethod = "cashapp"
	PaymentMethodPayPal        PaymentMethod = "paypal"
	PaymentMethodDirectDeposit PaymentMethod = "direct_deposit"
)

// Valid reports whether m is a known payment method. The empty value is valid.
func (m PaymentMethod) Valid() bool {
	switch m {
	case "", PaymentMethodCash, PaymentMethodCheck, PaymentMethodVenmo,
		PaymentMethodCashApp, PaymentMethodPayPal, PaymentMethodDirectDeposit:
		return true
	}
	return false
}

// Venue represents a place that hosts shows
type Venue struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	Location        string        `json:"location,omitempty"`
	Address         string        `json:"address,omitempty"`
	ContactName     string        `json:"contact_name,omitempty"`
	ContactEmail    string        `json:"contact_email,omitempty"`
	ContactPhone    string        `json:"contact_phone,omitempty"`
	MileageOneWay   *float64      `json:"mileage_one_way,omitempty"`
	TypicalPay      *float64      `json:"typical_pay,omitempty"`
	PaymentMethod   PaymentMethod `json:"payment_method,omitempty"`
	RequiresInvoice bool          `json:"requires_invoice"`
	HasW9           bool          `json:"has_w9"`

	// Day-of-month booking window. Both nil or both 1-31; Start > End wraps
	// across the month boundary.
	BookingWindowStart *int `json:"booking_window_start,omitempty"`
	BookingWindowEnd   *int `json:"booking_window_end,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasBookingWindow reports whether a booking window is configured.
func (v *Venue) HasBookingWindow() bool {
	return v != nil && v.BookingWindowStart != nil
}

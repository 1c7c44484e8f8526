package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWindow signals booking window bounds outside 1-31 or only an end bound.
	ErrInvalidWindow = errors.New("invalid booking window")
	// ErrInconsistentRecord signals a show that violates a record invariant.
	ErrInconsistentRecord = errors.New("inconsistent record")
)

// Invariant names carried by RecordError.
const (
	InvariantInvoiceDate     = "invoice_date_without_invoice"
	InvariantReceivedPending = "received_date_while_pending"
	InvariantReceivedBefore  = "received_before_show"
	InvariantPaymentStatus   = "unknown_payment_status"
	InvariantOrphanReference = "orphan_reference"
)

// RecordError reports which invariant a show breaks.
type RecordError struct {
	ShowID    int64
	Invariant string
	Detail    string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("show %d: %s: %s", e.ShowID, e.Invariant, e.Detail)
}

// Unwrap lets errors.Is match ErrInconsistentRecord.
func (e *RecordError) Unwrap() error { return ErrInconsistentRecord }

// IsOrphan reports whether err is an orphaned show reference.
func IsOrphan(err error) bool {
	var rerr *RecordError
	return errors.As(err, &rerr) && rerr.Invariant == InvariantOrphanReference
}

package recurrence

import (
	"errors"
	"fmt"

	"gigbook/shared/go/models"
)

// ErrInvalidPattern signals a recurring gig whose fields do not fit its pattern type.
var ErrInvalidPattern = errors.New("invalid recurrence pattern")

// PatternError describes which field of a pattern is wrong.
type PatternError struct {
	Pattern models.PatternType
	Field   string
	Reason  string
}

func (e *PatternError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s pattern: %s", e.Pattern, e.Reason)
	}
	return fmt.Sprintf("%s pattern: %s %s", e.Pattern, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidPattern.
func (e *PatternError) Unwrap() error { return ErrInvalidPattern }

func invalid(p models.PatternType, field, reason string) error {
	return &PatternError{Pattern: p, Field: field, Reason: reason}
}

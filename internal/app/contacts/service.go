package contacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

// ErrInvalidContact wraps contact log validation failures.
var ErrInvalidContact = errors.New("invalid contact log")

// Store defines persistence operations for contact logs
type Store interface {
	CreateContactLog(ctx context.Context, log *models.ContactLog) (*models.ContactLog, error)
	ListContactLogs(ctx context.Context, venueID int64) ([]*models.ContactLog, error)
	ListPendingFollowUps(ctx context.Context, today time.Time) ([]*models.ContactLog, error)
}

// VenueService allows validating that venues exist before logging contact
type VenueService interface {
	Get(ctx context.Context, id int64) (*models.Venue, error)
}

// Service coordinates contact log operations
type Service interface {
	Log(ctx context.Context, entry *models.ContactLog) (*models.ContactLog, error)
	List(ctx context.Context, venueID int64) ([]*models.ContactLog, error)
	PendingFollowUps(ctx context.Context) ([]*models.ContactLog, error)
}

type service struct {
	store  Store
	venues VenueService // Optional
	now    func() time.Time
}

// New constructs a contacts Service. venues and now may be nil.
func New(store Store, venues VenueService, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{store: store, venues: venues, now: now}
}

func (s *service) Log(ctx context.Context, entry *models.ContactLog) (*models.ContactLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: entry is required", ErrInvalidContact)
	}
	if !entry.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidContact, entry.Method)
	}
	if !entry.Outcome.Valid() {
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidContact, entry.Outcome)
	}
	if entry.ContactedAt.IsZero() {
		entry.ContactedAt = calendar.DateOf(s.now())
	}
	entry.ContactedAt = calendar.DateOf(entry.ContactedAt)
	if entry.FollowUpDate != nil {
		d := calendar.DateOf(*entry.FollowUpDate)
		if d.Before(entry.ContactedAt) {
			return nil, fmt.Errorf("%w: follow-up date is before the contact", ErrInvalidContact)
		}
		entry.FollowUpDate = &d
	}

	if s.venues != nil {
		if _, err := s.venues.Get(ctx, entry.VenueID); err != nil {
			return nil, err
		}
	}

	return s.store.CreateContactLog(ctx, entry)
}

func (s *service) List(ctx context.Context, venueID int64) ([]*models.ContactLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListContactLogs(ctx, venueID)
}

func (s *service) PendingFollowUps(ctx context.Context) ([]*models.ContactLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListPendingFollowUps(ctx, calendar.DateOf(s.now()))
}

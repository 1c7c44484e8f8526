package venues

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gigbook/internal/calendar"
	"gigbook/internal/rules"
	"gigbook/internal/store"
	"gigbook/shared/go/models"
)

// ErrInvalidVenue wraps venue validation failures.
var ErrInvalidVenue = errors.New("invalid venue")

// Store defines persistence operations for venues
type Store interface {
	CreateVenue(ctx context.Context, venue *models.Venue) (*models.Venue, error)
	ListVenues(ctx context.Context) ([]*models.Venue, error)
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	UpdateVenue(ctx context.Context, id int64, venue *models.Venue) (*models.Venue, error)
	DeleteVenue(ctx context.Context, id int64, today time.Time) (*store.DeleteResult, error)
}

// Service coordinates venue operations
type Service interface {
	Create(ctx context.Context, venue *models.Venue) (*models.Venue, error)
	List(ctx context.Context) ([]*models.Venue, error)
	Get(ctx context.Context, id int64) (*models.Venue, error)
	Update(ctx context.Context, id int64, venue *models.Venue) (*models.Venue, error)
	// Delete removes a venue. Past shows keep the venue name as a snapshot,
	// future shows are cancelled and recurring gigs are deactivated.
	Delete(ctx context.Context, id int64) (*store.DeleteResult, error)
}

type service struct {
	store Store
	now   func() time.Time
}

// New constructs a venues Service. A nil now uses the current time.
func New(store Store, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{store: store, now: now}
}

func (s *service) Create(ctx context.Context, venue *models.Venue) (*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := Validate(venue); err != nil {
		return nil, err
	}
	return s.store.CreateVenue(ctx, venue)
}

func (s *service) List(ctx context.Context) ([]*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListVenues(ctx)
}

func (s *service) Get(ctx context.Context, id int64) (*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetVenue(ctx, id)
}

func (s *service) Update(ctx context.Context, id int64, venue *models.Venue) (*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := Validate(venue); err != nil {
		return nil, err
	}
	return s.store.UpdateVenue(ctx, id, venue)
}

func (s *service) Delete(ctx context.Context, id int64) (*store.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.store.DeleteVenue(ctx, id, calendar.DateOf(s.now()))
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("venue_id", id).
		Int64("detached_shows", res.DetachedShows).
		Int64("cancelled_shows", res.CancelledShows).
		Int64("deactivated_gigs", res.DeactivatedGigs).
		Msg("Venue deleted")
	return res, nil
}

// Validate checks the fields a venue must satisfy before it is stored.
func Validate(venue *models.Venue) error {
	if venue == nil {
		return fmt.Errorf("%w: venue is required", ErrInvalidVenue)
	}
	venue.Name = strings.TrimSpace(venue.Name)
	if venue.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidVenue)
	}
	if !venue.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidVenue, venue.PaymentMethod)
	}
	if venue.MileageOneWay != nil && *venue.MileageOneWay < 0 {
		return fmt.Errorf("%w: mileage cannot be negative", ErrInvalidVenue)
	}
	if venue.TypicalPay != nil && *venue.TypicalPay < 0 {
		return fmt.Errorf("%w: typical pay cannot be negative", ErrInvalidVenue)
	}
	if err := rules.ValidateWindow(venue); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVenue, err)
	}
	return nil
}

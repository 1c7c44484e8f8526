package shows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigbook/internal/calendar"
	"gigbook/shared/go/models"
)

// ErrInvalidShow wraps show validation failures.
var ErrInvalidShow = errors.New("invalid show")

// Store defines persistence operations for shows
type Store interface {
	CreateShow(ctx context.Context, show *models.Show) (*models.Show, error)
	GetShow(ctx context.Context, id int64) (*models.Show, error)
	ListShows(ctx context.Context, filter models.ShowFilter) ([]*models.Show, error)
	MarkShowPaid(ctx context.Context, id int64, received time.Time) (*models.Show, error)
	MarkInvoiceSent(ctx context.Context, id int64, sent time.Time) (*models.Show, error)
	CancelShow(ctx context.Context, id int64) error
}

// VenueService allows validating that venues exist before booking shows
type VenueService interface {
	Get(ctx context.Context, id int64) (*models.Venue, error)
}

// Service coordinates show operations
type Service interface {
	Create(ctx context.Context, show *models.Show) (*models.Show, error)
	Get(ctx context.Context, id int64) (*models.Show, error)
	List(ctx context.Context, filter models.ShowFilter) ([]*models.Show, error)
	// MarkPaid records payment. A nil received date means today.
	MarkPaid(ctx context.Context, id int64, received *time.Time) (*models.Show, error)
	// MarkInvoiceSent records the invoice. A nil sent date means today.
	MarkInvoiceSent(ctx context.Context, id int64, sent *time.Time) (*models.Show, error)
	Cancel(ctx context.Context, id int64) error
}

type service struct {
	store  Store
	venues VenueService // Optional
	now    func() time.Time
}

// New constructs a shows Service. venues and now may be nil.
func New(store Store, venues VenueService, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{store: store, venues: venues, now: now}
}

func (s *service) Create(ctx context.Context, show *models.Show) (*models.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if show == nil {
		return nil, fmt.Errorf("%w: show is required", ErrInvalidShow)
	}
	if show.VenueID == nil {
		return nil, fmt.Errorf("%w: venue_id is required", ErrInvalidShow)
	}
	if show.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidShow)
	}
	if show.PayAmount != nil && *show.PayAmount < 0 {
		return nil, fmt.Errorf("%w: pay cannot be negative", ErrInvalidShow)
	}
	if show.PaymentStatus == "" {
		show.PaymentStatus = models.PaymentPending
	}
	if show.PaymentStatus != models.PaymentPending && show.PaymentStatus != models.PaymentPaid {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalidShow, show.PaymentStatus)
	}
	show.Date = calendar.DateOf(show.Date)

	if s.venues != nil {
		if _, err := s.venues.Get(ctx, *show.VenueID); err != nil {
			return nil, err
		}
	}

	return s.store.CreateShow(ctx, show)
}

func (s *service) Get(ctx context.Context, id int64) (*models.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetShow(ctx, id)
}

func (s *service) List(ctx context.Context, filter models.ShowFilter) ([]*models.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListShows(ctx, filter)
}

func (s *service) MarkPaid(ctx context.Context, id int64, received *time.Time) (*models.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.MarkShowPaid(ctx, id, s.dateOrToday(received))
}

func (s *service) MarkInvoiceSent(ctx context.Context, id int64, sent *time.Time) (*models.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.MarkInvoiceSent(ctx, id, s.dateOrToday(sent))
}

func (s *service) Cancel(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.CancelShow(ctx, id)
}

func (s *service) dateOrToday(d *time.Time) time.Time {
	if d == nil {
		return calendar.DateOf(s.now())
	}
	return calendar.DateOf(*d)
}

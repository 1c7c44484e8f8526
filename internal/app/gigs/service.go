package gigs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"gigbook/internal/calendar"
	"gigbook/internal/instances"
	"gigbook/internal/recurrence"
	"gigbook/shared/go/models"
)

// Store defines persistence operations for recurring gigs
type Store interface {
	CreateRecurringGig(ctx context.Context, gig *models.RecurringGig) (*models.RecurringGig, error)
	GetRecurringGig(ctx context.Context, id int64) (*models.RecurringGig, error)
	ListRecurringGigs(ctx context.Context, activeOnly bool) ([]*models.RecurringGig, error)
	DeactivateRecurringGig(ctx context.Context, id int64, cancelFrom *time.Time) (int64, error)
}

// Syncer generates show instances for recurring gigs
type Syncer interface {
	SyncGig(ctx context.Context, gig *models.RecurringGig) (*instances.Result, error)
	SyncAll(ctx context.Context) (*instances.Summary, error)
}

// VenueService allows validating that venues exist before creating gigs
type VenueService interface {
	Get(ctx context.Context, id int64) (*models.Venue, error)
}

// Service coordinates recurring gig operations
type Service interface {
	// Create validates and stores gig, then generates its upcoming shows.
	// A failed generation is logged and left to the next sync.
	Create(ctx context.Context, gig *models.RecurringGig) (*models.RecurringGig, *instances.Result, error)
	Get(ctx context.Context, id int64) (*models.RecurringGig, error)
	List(ctx context.Context, activeOnly bool) ([]*models.RecurringGig, error)
	// Deactivate stops generation. With cancelFuture, pending instances from
	// today on are cancelled and their count returned.
	Deactivate(ctx context.Context, id int64, cancelFuture bool) (int64, error)
	Sync(ctx context.Context) (*instances.Summary, error)
}

type service struct {
	store  Store
	syncer Syncer
	venues VenueService // Optional
	now    func() time.Time
}

// New constructs a gigs Service. venues and now may be nil.
func New(store Store, syncer Syncer, venues VenueService, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{store: store, syncer: syncer, venues: venues, now: now}
}

func (s *service) Create(ctx context.Context, gig *models.RecurringGig) (*models.RecurringGig, *instances.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := recurrence.Validate(gig); err != nil {
		return nil, nil, err
	}
	gig.StartDate = calendar.DateOf(gig.StartDate)
	if gig.EndDate != nil {
		end := calendar.DateOf(*gig.EndDate)
		gig.EndDate = &end
	}
	gig.IsActive = true

	if s.venues != nil {
		if _, err := s.venues.Get(ctx, gig.VenueID); err != nil {
			return nil, nil, err
		}
	}

	created, err := s.store.CreateRecurringGig(ctx, gig)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.syncer.SyncGig(ctx, created)
	if err != nil {
		log.Warn().Err(err).Int64("recurring_gig_id", created.ID).Msg("Initial instance generation failed")
		return created, nil, nil
	}
	return created, res, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.RecurringGig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetRecurringGig(ctx, id)
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]*models.RecurringGig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListRecurringGigs(ctx, activeOnly)
}

func (s *service) Deactivate(ctx context.Context, id int64, cancelFuture bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var from *time.Time
	if cancelFuture {
		today := calendar.DateOf(s.now())
		from = &today
	}
	return s.store.DeactivateRecurringGig(ctx, id, from)
}

func (s *service) Sync(ctx context.Context) (*instances.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.syncer.SyncAll(ctx)
}

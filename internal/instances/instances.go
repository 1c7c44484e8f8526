// Package instances turns recurring gigs into persisted shows.
package instances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gigbook/internal/calendar"
	"gigbook/internal/recurrence"
	"gigbook/internal/store"
	"gigbook/shared/go/models"
)

// DefaultHorizonDays is how far ahead instances are generated.
const DefaultHorizonDays = 90

// Store is the persistence the synchronizer needs.
type Store interface {
	ListRecurringGigs(ctx context.Context, activeOnly bool) ([]*models.RecurringGig, error)
	GetRecurringGig(ctx context.Context, id int64) (*models.RecurringGig, error)
	GetShowForRecurringDate(ctx context.Context, gigID int64, date time.Time) (*models.Show, error)
	CreateShow(ctx context.Context, show *models.Show) (*models.Show, error)
}

// Publisher is notified about newly generated shows.
type Publisher interface {
	PublishShowsGenerated(ctx context.Context, event ShowsGenerated) error
}

// ShowsGenerated describes the shows one sync created for a gig.
type ShowsGenerated struct {
	RunID          string      `json:"run_id"`
	RecurringGigID int64       `json:"recurring_gig_id"`
	VenueID        int64       `json:"venue_id"`
	ShowIDs        []int64     `json:"show_ids"`
	Dates          []time.Time `json:"dates"`
	GeneratedAt    time.Time   `json:"generated_at"`
}

// Result is the outcome of syncing one gig.
type Result struct {
	RecurringGigID int64          `json:"recurring_gig_id"`
	Created        []*models.Show `json:"created"`
	Existing       int            `json:"existing"`
}

// Failure is a gig that could not be synced.
type Failure struct {
	RecurringGigID int64  `json:"recurring_gig_id"`
	Error          string `json:"error"`
}

// Summary is the outcome of syncing every active gig.
type Summary struct {
	RunID    string    `json:"run_id"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Gigs     int       `json:"gigs"`
	Created  int       `json:"created"`
	Existing int       `json:"existing"`
	Failures []Failure `json:"failures,omitempty"`
}

// Synchronizer creates the shows a recurring gig implies for the coming
// horizon. Dates that already have a show are left alone, so repeated runs
// are safe.
type Synchronizer struct {
	store     Store
	locker    Locker
	publisher Publisher
	horizon   int
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLocker sets the lock used to serialize syncs of the same gig.
func WithLocker(l Locker) Option {
	return func(s *Synchronizer) { s.locker = l }
}

// WithPublisher sets the publisher notified of created shows.
func WithPublisher(p Publisher) Option {
	return func(s *Synchronizer) { s.publisher = p }
}

// WithHorizonDays sets how many days past today are generated.
func WithHorizonDays(days int) Option {
	return func(s *Synchronizer) {
		if days > 0 {
			s.horizon = days
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithClock overrides the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// NewSynchronizer returns a Synchronizer over store. Without WithLocker it
// serializes syncs in process.
func NewSynchronizer(st Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:   st,
		locker:  NewKeyedMutex(),
		horizon: DefaultHorizonDays,
		logger:  log.Logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the dates a sync covers.
func (s *Synchronizer) Window() (from, to time.Time) {
	from = calendar.DateOf(s.now())
	return from, calendar.AddDays(from, s.horizon)
}

// SyncGig creates missing shows for gig within the window.
func (s *Synchronizer) SyncGig(ctx context.Context, gig *models.RecurringGig) (*Result, error) {
	return s.syncGig(ctx, uuid.NewString(), gig)
}

// SyncGigByID loads a gig and syncs it.
func (s *Synchronizer) SyncGigByID(ctx context.Context, id int64) (*Result, error) {
	gig, err := s.store.GetRecurringGig(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SyncGig(ctx, gig)
}

func (s *Synchronizer) syncGig(ctx context.Context, runID string, gig *models.RecurringGig) (*Result, error) {
	from, to := s.Window()
	dates, err := recurrence.Occurrences(gig, from, to)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(gig.ID))
	if err != nil {
		return nil, fmt.Errorf("lock recurring gig %d: %w", gig.ID, err)
	}
	defer unlock()

	res := &Result{RecurringGigID: gig.ID}
	for date := range dates {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		_, err := s.store.GetShowForRecurringDate(ctx, gig.ID, date)
		if err == nil {
			res.Existing++
			continue
		}
		if !errors.Is(err, store.ErrShowNotFound) {
			return res, fmt.Errorf("lookup instance %s: %w", date.Format(time.DateOnly), err)
		}

		show, err := s.store.CreateShow(ctx, newInstance(gig, date))
		if errors.Is(err, store.ErrShowExists) {
			res.Existing++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create instance %s: %w", date.Format(time.DateOnly), err)
		}
		res.Created = append(res.Created, show)
	}

	if len(res.Created) > 0 {
		s.logger.Info().
			Str("run_id", runID).
			Int64("recurring_gig_id", gig.ID).
			Int("created", len(res.Created)).
			Int("existing", res.Existing).
			Msg("Generated show instances")
		s.publish(ctx, runID, gig, res.Created)
	}

	return res, nil
}

// SyncAll syncs every active gig. A failing gig is recorded in the summary
// and the rest still run.
func (s *Synchronizer) SyncAll(ctx context.Context) (*Summary, error) {
	gigs, err := s.store.ListRecurringGigs(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list recurring gigs: %w", err)
	}

	from, to := s.Window()
	sum := &Summary{RunID: uuid.NewString(), From: from, To: to, Gigs: len(gigs)}
	for _, gig := range gigs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		res, err := s.syncGig(ctx, sum.RunID, gig)
		if res != nil {
			sum.Created += len(res.Created)
			sum.Existing += res.Existing
		}
		if err != nil {
			s.logger.Error().Err(err).
				Str("run_id", sum.RunID).
				Int64("recurring_gig_id", gig.ID).
				Msg("Failed to sync recurring gig")
			sum.Failures = append(sum.Failures, Failure{RecurringGigID: gig.ID, Error: err.Error()})
		}
	}

	s.logger.Info().
		Str("run_id", sum.RunID).
		Int("gigs", sum.Gigs).
		Int("created", sum.Created).
		Int("failures", len(sum.Failures)).
		Msg("Instance sync finished")

	return sum, nil
}

func (s *Synchronizer) publish(ctx context.Context, runID string, gig *models.RecurringGig, created []*models.Show) {
	if s.publisher == nil {
		return
	}

	event := ShowsGenerated{
		RunID:          runID,
		RecurringGigID: gig.ID,
		VenueID:        gig.VenueID,
		GeneratedAt:    s.now().UTC(),
	}
	for _, show := range created {
		event.ShowIDs = append(event.ShowIDs, show.ID)
		event.Dates = append(event.Dates, show.Date)
	}

	if err := s.publisher.PublishShowsGenerated(ctx, event); err != nil {
		s.logger.Warn().Err(err).
			Str("run_id", runID).
			Int64("recurring_gig_id", gig.ID).
			Msg("Failed to publish generated shows")
	}
}

func newInstance(gig *models.RecurringGig, date time.Time) *models.Show {
	venueID := gig.VenueID
	gigID := gig.ID
	show := &models.Show{
		VenueID:        &venueID,
		RecurringGigID: &gigID,
		Date:           date,
		PaymentStatus:  models.PaymentPending,
	}
	if gig.PayAmount != nil {
		pay := *gig.PayAmount
		show.PayAmount = &pay
	}
	return show
}

func lockKey(gigID int64) string {
	return fmt.Sprintf("gigbook:sync:recurring_gig:%d", gigID)
}

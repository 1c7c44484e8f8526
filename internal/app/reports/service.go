package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"gigbook/internal/calendar"
	"gigbook/internal/report"
	"gigbook/internal/scoring"
	"gigbook/shared/go/config"
	"gigbook/shared/go/models"
)

// ErrInvalidYear is returned for a tax year outside 1900-9999.
var ErrInvalidYear = errors.New("invalid tax year")

// Store defines the reads reports are built from
type Store interface {
	ListVenues(ctx context.Context) ([]*models.Venue, error)
	ListShows(ctx context.Context, filter models.ShowFilter) ([]*models.Show, error)
	ListShowsForVenues(ctx context.Context, venueIDs []int64) ([]*models.Show, error)
	ListContactLogsForVenues(ctx context.Context, venueIDs []int64) ([]*models.ContactLog, error)
	ListDetachedShows(ctx context.Context) ([]*models.Show, error)
}

// Service builds reports from stored records
type Service interface {
	// Smart scores every venue and assembles today's report.
	Smart(ctx context.Context) (*report.Report, error)
	Tax(ctx context.Context, year int) (*report.TaxReport, error)
}

type service struct {
	store    Store
	settings config.Settings
	now      func() time.Time
}

// New constructs a reports Service. A nil now uses the current time.
func New(store Store, settings config.Settings, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	settings.Normalize()
	return &service{store: store, settings: settings, now: now}
}

func (s *service) Smart(ctx context.Context) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	today := calendar.DateOf(s.now())

	in, err := s.gather(ctx)
	if err != nil {
		return nil, err
	}

	rep := report.Assemble(in, today, s.settings.Thresholds)
	if len(rep.Problems) > 0 {
		log.Warn().Int("problems", len(rep.Problems)).Msg("Report skipped inconsistent records")
	}
	return rep, nil
}

func (s *service) gather(ctx context.Context) (report.Input, error) {
	venues, err := s.store.ListVenues(ctx)
	if err != nil {
		return report.Input{}, fmt.Errorf("list venues: %w", err)
	}

	ids := make([]int64, 0, len(venues))
	for _, v := range venues {
		ids = append(ids, v.ID)
	}

	shows, err := s.store.ListShowsForVenues(ctx, ids)
	if err != nil {
		return report.Input{}, fmt.Errorf("list shows: %w", err)
	}
	contacts, err := s.store.ListContactLogsForVenues(ctx, ids)
	if err != nil {
		return report.Input{}, fmt.Errorf("list contact logs: %w", err)
	}
	detached, err := s.store.ListDetachedShows(ctx)
	if err != nil {
		return report.Input{}, fmt.Errorf("list detached shows: %w", err)
	}

	showsByVenue := make(map[int64][]models.Show, len(venues))
	for _, sh := range shows {
		if sh.VenueID != nil {
			showsByVenue[*sh.VenueID] = append(showsByVenue[*sh.VenueID], *sh)
		}
	}
	contactsByVenue := make(map[int64][]models.ContactLog, len(venues))
	for _, c := range contacts {
		contactsByVenue[c.VenueID] = append(contactsByVenue[c.VenueID], *c)
	}

	in := report.Input{Venues: make([]scoring.Input, 0, len(venues))}
	for _, v := range venues {
		in.Venues = append(in.Venues, scoring.Input{
			Venue:    *v,
			Shows:    showsByVenue[v.ID],
			Contacts: contactsByVenue[v.ID],
		})
	}
	for _, sh := range detached {
		in.DetachedShows = append(in.DetachedShows, *sh)
	}
	return in, nil
}

func (s *service) Tax(ctx context.Context, year int) (*report.TaxReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}

	from := calendar.Date(year, time.January, 1)
	to := calendar.Date(year, time.December, 31)
	shows, err := s.store.ListShows(ctx, models.ShowFilter{FromDate: &from, ToDate: &to})
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	venues, err := s.store.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}

	byID := make(map[int64]*models.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	flat := make([]models.Show, 0, len(shows))
	for _, sh := range shows {
		flat = append(flat, *sh)
	}

	return report.Tax(year, flat, byID, s.settings.MileageRate(year)), nil
}

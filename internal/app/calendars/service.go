package calendars

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gigbook/internal/calendar"
	"gigbook/internal/ics"
	"gigbook/shared/go/models"
)

// Store defines the reads calendar exchange needs
type Store interface {
	ListVenues(ctx context.Context) ([]*models.Venue, error)
	ListShows(ctx context.Context, filter models.ShowFilter) ([]*models.Show, error)
}

// Proposal is an imported event matched against known venues.
type Proposal struct {
	ics.Proposal
	// VenueID is set when a venue with the same name already exists.
	VenueID *int64 `json:"venue_id,omitempty"`
}

// ImportResult lists the proposals for an imported calendar.
type ImportResult struct {
	Proposals []Proposal    `json:"proposals"`
	Skipped   []ics.Skipped `json:"skipped,omitempty"`
}

// Service exchanges shows with calendar applications
type Service interface {
	Export(ctx context.Context, w io.Writer, futureOnly bool) (int, error)
	// Import proposes records for the events in r within [from, to]. Nothing
	// is stored.
	Import(ctx context.Context, r io.Reader, from, to time.Time) (*ImportResult, error)
}

type service struct {
	store Store
	now   func() time.Time
}

// New constructs a calendars Service. A nil now uses the current time.
func New(store Store, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{store: store, now: now}
}

func (s *service) Export(ctx context.Context, w io.Writer, futureOnly bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	shows, err := s.store.ListShows(ctx, models.ShowFilter{})
	if err != nil {
		return 0, fmt.Errorf("list shows: %w", err)
	}
	venues, err := s.venuesByID(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	return ics.Export(w, shows, venues, ics.ExportOptions{
		FutureOnly: futureOnly,
		Today:      calendar.DateOf(now),
		Now:        now,
	})
}

func (s *service) Import(ctx context.Context, r io.Reader, from, to time.Time) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, err := ics.Import(r, from, to)
	if err != nil {
		return nil, err
	}
	venues, err := s.store.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}

	byName := make(map[string]int64, len(venues))
	for _, v := range venues {
		byName[strings.ToLower(v.Name)] = v.ID
	}

	res := &ImportResult{Skipped: parsed.Skipped}
	for _, p := range parsed.Proposals {
		prop := Proposal{Proposal: p}
		if id, ok := byName[strings.ToLower(p.VenueName)]; ok {
			prop.VenueID = &id
		}
		res.Proposals = append(res.Proposals, prop)
	}
	return res, nil
}

func (s *service) venuesByID(ctx context.Context) (map[int64]*models.Venue, error) {
	venues, err := s.store.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	byID := make(map[int64]*models.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	return byID, nil
}

package store

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"gigbook/internal/calendar"
	"gigbook/internal/rules"
	"gigbook/shared/go/models"
)

type gigDate struct {
	gigID int64
	date  time.Time
}

// MemoryStore keeps records in memory. It implements the same operations as
// Store and is used for tests and database-less runs.
type MemoryStore struct {
	mu       sync.RWMutex
	venues   map[int64]*models.Venue
	shows    map[int64]*models.Show
	gigs     map[int64]*models.RecurringGig
	contacts map[int64]*models.ContactLog
	instance map[gigDate]int64
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		venues:   make(map[int64]*models.Venue),
		shows:    make(map[int64]*models.Show),
		gigs:     make(map[int64]*models.RecurringGig),
		contacts: make(map[int64]*models.ContactLog),
		instance: make(map[gigDate]int64),
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// CreateVenue adds a new venue
func (m *MemoryStore) CreateVenue(_ context.Context, venue *models.Venue) (*models.Venue, error) {
	if venue == nil {
		return nil, errors.New("venue is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	venue.ID = m.id()
	venue.CreatedAt = m.now()
	venue.UpdatedAt = venue.CreatedAt
	m.venues[venue.ID] = cloneVenue(venue)
	return cloneVenue(venue), nil
}

// ListVenues returns all venues ordered by name
func (m *MemoryStore) ListVenues(_ context.Context) ([]*models.Venue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Venue, 0, len(m.venues))
	for _, v := range m.venues {
		result = append(result, cloneVenue(v))
	}
	slices.SortFunc(result, func(a, b *models.Venue) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

// GetVenue retrieves a single venue by ID
func (m *MemoryStore) GetVenue(_ context.Context, id int64) (*models.Venue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.venues[id]
	if !ok {
		return nil, ErrVenueNotFound
	}
	return cloneVenue(v), nil
}

// UpdateVenue replaces an existing venue
func (m *MemoryStore) UpdateVenue(_ context.Context, id int64, venue *models.Venue) (*models.Venue, error) {
	if venue == nil {
		return nil, errors.New("venue is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.venues[id]
	if !ok {
		return nil, ErrVenueNotFound
	}
	updated := cloneVenue(venue)
	updated.ID = id
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = m.now()
	m.venues[id] = updated
	return cloneVenue(updated), nil
}

// DeleteVenue removes a venue with the same cascade as Store.DeleteVenue.
func (m *MemoryStore) DeleteVenue(_ context.Context, id int64, today time.Time) (*DeleteResult, error) {
	today = calendar.DateOf(today)

	m.mu.Lock()
	defer m.mu.Unlock()

	venue, ok := m.venues[id]
	if !ok {
		return nil, ErrVenueNotFound
	}

	res := &DeleteResult{}
	now := m.now()
	for _, sh := range m.shows {
		if sh.VenueID == nil || *sh.VenueID != id {
			continue
		}
		name := venue.Name
		sh.VenueNameSnapshot = &name
		sh.UpdatedAt = now
		if calendar.DateOf(sh.Date).Before(today) {
			sh.VenueID = nil
			res.DetachedShows++
		} else {
			sh.IsCancelled = true
			res.CancelledShows++
		}
	}
	for _, g := range m.gigs {
		if g.VenueID == id && g.IsActive {
			g.IsActive = false
			g.UpdatedAt = now
			res.DeactivatedGigs++
		}
	}
	delete(m.venues, id)
	return res, nil
}

// CreateShow inserts a show. A second instance for the same recurring gig
// and date fails with ErrShowExists.
func (m *MemoryStore) CreateShow(_ context.Context, show *models.Show) (*models.Show, error) {
	if show == nil {
		return nil, errors.New("show is required")
	}
	if show.PaymentStatus == "" {
		show.PaymentStatus = models.PaymentPending
	}
	show.Date = calendar.DateOf(show.Date)

	m.mu.Lock()
	defer m.mu.Unlock()

	var key gigDate
	if show.RecurringGigID != nil {
		key = gigDate{gigID: *show.RecurringGigID, date: show.Date}
		if _, exists := m.instance[key]; exists {
			return nil, ErrShowExists
		}
	}

	show.ID = m.id()
	show.CreatedAt = m.now()
	show.UpdatedAt = show.CreatedAt
	m.shows[show.ID] = cloneShow(show)
	if show.RecurringGigID != nil {
		m.instance[key] = show.ID
	}
	return cloneShow(show), nil
}

// GetShow retrieves a single show by ID
func (m *MemoryStore) GetShow(_ context.Context, id int64) (*models.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sh, ok := m.shows[id]
	if !ok {
		return nil, ErrShowNotFound
	}
	return cloneShow(sh), nil
}

// GetShowForRecurringDate returns the instance generated for gigID on date,
// or ErrShowNotFound.
func (m *MemoryStore) GetShowForRecurringDate(_ context.Context, gigID int64, date time.Time) (*models.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.instance[gigDate{gigID: gigID, date: calendar.DateOf(date)}]
	if !ok {
		return nil, ErrShowNotFound
	}
	return cloneShow(m.shows[id]), nil
}

// ListShows returns shows matching filter ordered by date.
func (m *MemoryStore) ListShows(_ context.Context, filter models.ShowFilter) ([]*models.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.Show
	for _, sh := range m.shows {
		if filter.VenueID != nil && (sh.VenueID == nil || *sh.VenueID != *filter.VenueID) {
			continue
		}
		if filter.RecurringGigID != nil && (sh.RecurringGigID == nil || *sh.RecurringGigID != *filter.RecurringGigID) {
			continue
		}
		if filter.FromDate != nil && sh.Date.Before(calendar.DateOf(*filter.FromDate)) {
			continue
		}
		if filter.ToDate != nil && sh.Date.After(calendar.DateOf(*filter.ToDate)) {
			continue
		}
		result = append(result, cloneShow(sh))
	}
	sortShows(result)
	return result, nil
}

// ListShowsForVenues returns every show attached to one of venueIDs.
func (m *MemoryStore) ListShowsForVenues(_ context.Context, venueIDs []int64) ([]*models.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.Show
	for _, sh := range m.shows {
		if sh.VenueID != nil && slices.Contains(venueIDs, *sh.VenueID) {
			result = append(result, cloneShow(sh))
		}
	}
	sortShows(result)
	return result, nil
}

// ListDetachedShows returns shows whose venue was deleted.
func (m *MemoryStore) ListDetachedShows(_ context.Context) ([]*models.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.Show
	for _, sh := range m.shows {
		if sh.VenueID == nil {
			result = append(result, cloneShow(sh))
		}
	}
	sortShows(result)
	return result, nil
}

// MarkShowPaid records payment received on date.
func (m *MemoryStore) MarkShowPaid(_ context.Context, id int64, received time.Time) (*models.Show, error) {
	received = calendar.DateOf(received)

	m.mu.Lock()
	defer m.mu.Unlock()

	sh, ok := m.shows[id]
	if !ok {
		return nil, ErrShowNotFound
	}
	if received.Before(sh.Date) {
		return nil, &rules.RecordError{ShowID: id, Invariant: rules.InvariantReceivedBefore, Detail: "payment received before show date"}
	}
	sh.PaymentStatus = models.PaymentPaid
	sh.PaymentReceivedDate = &received
	sh.UpdatedAt = m.now()
	return cloneShow(sh), nil
}

// MarkInvoiceSent records that an invoice went out on date.
func (m *MemoryStore) MarkInvoiceSent(_ context.Context, id int64, sent time.Time) (*models.Show, error) {
	sent = calendar.DateOf(sent)

	m.mu.Lock()
	defer m.mu.Unlock()

	sh, ok := m.shows[id]
	if !ok {
		return nil, ErrShowNotFound
	}
	sh.InvoiceSent = true
	sh.InvoiceSentDate = &sent
	sh.UpdatedAt = m.now()
	return cloneShow(sh), nil
}

// CancelShow marks a show cancelled.
func (m *MemoryStore) CancelShow(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sh, ok := m.shows[id]
	if !ok {
		return ErrShowNotFound
	}
	sh.IsCancelled = true
	sh.UpdatedAt = m.now()
	return nil
}

// CreateRecurringGig inserts a recurring gig.
func (m *MemoryStore) CreateRecurringGig(_ context.Context, gig *models.RecurringGig) (*models.RecurringGig, error) {
	if gig == nil {
		return nil, errors.New("recurring gig is required")
	}
	gig.StartDate = calendar.DateOf(gig.StartDate)
	if gig.EndDate != nil {
		end := calendar.DateOf(*gig.EndDate)
		gig.EndDate = &end
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	gig.ID = m.id()
	gig.CreatedAt = m.now()
	gig.UpdatedAt = gig.CreatedAt
	m.gigs[gig.ID] = cloneGig(gig)
	return cloneGig(gig), nil
}

// GetRecurringGig retrieves a single recurring gig by ID
func (m *MemoryStore) GetRecurringGig(_ context.Context, id int64) (*models.RecurringGig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.gigs[id]
	if !ok {
		return nil, ErrRecurringGigNotFound
	}
	return cloneGig(g), nil
}

// ListRecurringGigs returns recurring gigs, optionally only active ones.
func (m *MemoryStore) ListRecurringGigs(_ context.Context, activeOnly bool) ([]*models.RecurringGig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.RecurringGig
	for _, g := range m.gigs {
		if activeOnly && !g.IsActive {
			continue
		}
		result = append(result, cloneGig(g))
	}
	slices.SortFunc(result, func(a, b *models.RecurringGig) int { return cmp.Compare(a.ID, b.ID) })
	return result, nil
}

// DeactivateRecurringGig stops a gig from generating shows, optionally
// cancelling unpaid instances on or after cancelFrom.
func (m *MemoryStore) DeactivateRecurringGig(_ context.Context, id int64, cancelFrom *time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gigs[id]
	if !ok {
		return 0, ErrRecurringGigNotFound
	}
	now := m.now()
	g.IsActive = false
	g.UpdatedAt = now

	if cancelFrom == nil {
		return 0, nil
	}
	from := calendar.DateOf(*cancelFrom)
	var cancelled int64
	for _, sh := range m.shows {
		if sh.RecurringGigID == nil || *sh.RecurringGigID != id {
			continue
		}
		if sh.Date.Before(from) || sh.PaymentStatus != models.PaymentPending || sh.IsCancelled {
			continue
		}
		sh.IsCancelled = true
		sh.UpdatedAt = now
		cancelled++
	}
	return cancelled, nil
}

// CreateContactLog appends a contact log.
func (m *MemoryStore) CreateContactLog(_ context.Context, log *models.ContactLog) (*models.ContactLog, error) {
	if log == nil {
		return nil, errors.New("contact log is required")
	}
	if log.FollowUpDate != nil {
		d := calendar.DateOf(*log.FollowUpDate)
		log.FollowUpDate = &d
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	log.ID = m.id()
	log.CreatedAt = m.now()
	m.contacts[log.ID] = cloneContactLog(log)
	return cloneContactLog(log), nil
}

// GetContactLog retrieves a single contact log by ID
func (m *MemoryStore) GetContactLog(_ context.Context, id int64) (*models.ContactLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[id]
	if !ok {
		return nil, ErrContactLogNotFound
	}
	return cloneContactLog(c), nil
}

// ListContactLogs returns a venue's contact history, newest first.
func (m *MemoryStore) ListContactLogs(ctx context.Context, venueID int64) ([]*models.ContactLog, error) {
	return m.ListContactLogsForVenues(ctx, []int64{venueID})
}

// ListContactLogsForVenues returns the contact logs of every venue in venueIDs.
func (m *MemoryStore) ListContactLogsForVenues(_ context.Context, venueIDs []int64) ([]*models.ContactLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.ContactLog
	for _, c := range m.contacts {
		if slices.Contains(venueIDs, c.VenueID) {
			result = append(result, cloneContactLog(c))
		}
	}
	slices.SortFunc(result, func(a, b *models.ContactLog) int {
		if c := b.ContactedAt.Compare(a.ContactedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return result, nil
}

// ListPendingFollowUps returns logs whose follow-up date has arrived.
func (m *MemoryStore) ListPendingFollowUps(_ context.Context, today time.Time) ([]*models.ContactLog, error) {
	today = calendar.DateOf(today)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.ContactLog
	for _, c := range m.contacts {
		if c.FollowUpDate != nil && !c.FollowUpDate.After(today) {
			result = append(result, cloneContactLog(c))
		}
	}
	slices.SortFunc(result, func(a, b *models.ContactLog) int {
		if c := a.FollowUpDate.Compare(*b.FollowUpDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

func sortShows(shows []*models.Show) {
	slices.SortFunc(shows, func(a, b *models.Show) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func cloneVenue(v *models.Venue) *models.Venue {
	out := *v
	out.MileageOneWay = clonePtr(v.MileageOneWay)
	out.TypicalPay = clonePtr(v.TypicalPay)
	out.BookingWindowStart = clonePtr(v.BookingWindowStart)
	out.BookingWindowEnd = clonePtr(v.BookingWindowEnd)
	return &out
}

func cloneShow(s *models.Show) *models.Show {
	out := *s
	out.VenueID = clonePtr(s.VenueID)
	out.RecurringGigID = clonePtr(s.RecurringGigID)
	out.VenueNameSnapshot = clonePtr(s.VenueNameSnapshot)
	out.PayAmount = clonePtr(s.PayAmount)
	out.PaymentReceivedDate = clonePtr(s.PaymentReceivedDate)
	out.InvoiceSentDate = clonePtr(s.InvoiceSentDate)
	return &out
}

func cloneGig(g *models.RecurringGig) *models.RecurringGig {
	out := *g
	out.PayAmount = clonePtr(g.PayAmount)
	out.DayOfWeek = clonePtr(g.DayOfWeek)
	out.DayOfMonth = clonePtr(g.DayOfMonth)
	out.Ordinal = clonePtr(g.Ordinal)
	out.IntervalWeeks = clonePtr(g.IntervalWeeks)
	out.EndDate = clonePtr(g.EndDate)
	return &out
}

func cloneContactLog(c *models.ContactLog) *models.ContactLog {
	out := *c
	out.FollowUpDate = clonePtr(c.FollowUpDate)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

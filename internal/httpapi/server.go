package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"gigbook/internal/app/calendars"
	"gigbook/internal/app/contacts"
	"gigbook/internal/app/reports"
	"gigbook/internal/app/shows"
	"gigbook/internal/app/venues"
	"gigbook/internal/calendar"
	"gigbook/internal/ics"
	"gigbook/internal/instances"
	"gigbook/internal/recurrence"
	"gigbook/internal/report"
	"gigbook/internal/rules"
	"gigbook/internal/store"
	"gigbook/shared/go/logging"
	"gigbook/shared/go/middleware"
	"gigbook/shared/go/models"
)

// VenueService describes venue management workflows.
type VenueService interface {
	Create(ctx context.Context, venue *models.Venue) (*models.Venue, error)
	List(ctx context.Context) ([]*models.Venue, error)
	Get(ctx context.Context, id int64) (*models.Venue, error)
	Update(ctx context.Context, id int64, venue *models.Venue) (*models.Venue, error)
	Delete(ctx context.Context, id int64) (*store.DeleteResult, error)
}

// ShowService coordinates show operations.
type ShowService interface {
	Create(ctx context.Context, show *models.Show) (*models.Show, error)
	Get(ctx context.Context, id int64) (*models.Show, error)
	List(ctx context.Context, filter models.ShowFilter) ([]*models.Show, error)
	MarkPaid(ctx context.Context, id int64, received *time.Time) (*models.Show, error)
	MarkInvoiceSent(ctx context.Context, id int64, sent *time.Time) (*models.Show, error)
	Cancel(ctx context.Context, id int64) error
}

// GigService coordinates recurring gigs and instance sync.
type GigService interface {
	Create(ctx context.Context, gig *models.RecurringGig) (*models.RecurringGig, *instances.Result, error)
	Get(ctx context.Context, id int64) (*models.RecurringGig, error)
	List(ctx context.Context, activeOnly bool) ([]*models.RecurringGig, error)
	Deactivate(ctx context.Context, id int64, cancelFuture bool) (int64, error)
	Sync(ctx context.Context) (*instances.Summary, error)
}

// ContactService records outreach to venues.
type ContactService interface {
	Log(ctx context.Context, entry *models.ContactLog) (*models.ContactLog, error)
	List(ctx context.Context, venueID int64) ([]*models.ContactLog, error)
	PendingFollowUps(ctx context.Context) ([]*models.ContactLog, error)
}

// ReportService builds the action and tax reports.
type ReportService interface {
	Smart(ctx context.Context) (*report.Report, error)
	Tax(ctx context.Context, year int) (*report.TaxReport, error)
}

// CalendarService exchanges shows with calendar applications.
type CalendarService interface {
	Export(ctx context.Context, w io.Writer, futureOnly bool) (int, error)
	Import(ctx context.Context, r io.Reader, from, to time.Time) (*calendars.ImportResult, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	venues    VenueService
	shows     ShowService
	gigs      GigService
	contacts  ContactService
	reports   ReportService
	calendars CalendarService
	db        Pinger
	now       func() time.Time
}

// New configures a Server. db may be nil, in which case /health only reports
// that the process is up.
func New(
	venues VenueService,
	shows ShowService,
	gigs GigService,
	contacts ContactService,
	reports ReportService,
	calendars CalendarService,
	db Pinger,
) *Server {
	return &Server{
		venues:    venues,
		shows:     shows,
		gigs:      gigs,
		contacts:  contacts,
		reports:   reports,
		calendars: calendars,
		db:        db,
		now:       time.Now,
	}
}

// Routes exposes the JSON API.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.Use(annotateRoute)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Reports
	api.HandleFunc("/report", s.handleSmartReport).Methods(http.MethodGet)
	api.HandleFunc("/report/tax/{year:[0-9]+}", s.handleTaxReport).Methods(http.MethodGet)
	api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)

	// Venues
	api.HandleFunc("/venues", s.handleListVenues).Methods(http.MethodGet)
	api.HandleFunc("/venues", s.handleCreateVenue).Methods(http.MethodPost)
	api.HandleFunc("/venues/{id:[0-9]+}", s.handleGetVenue).Methods(http.MethodGet)
	api.HandleFunc("/venues/{id:[0-9]+}", s.handleUpdateVenue).Methods(http.MethodPut)
	api.HandleFunc("/venues/{id:[0-9]+}", s.handleDeleteVenue).Methods(http.MethodDelete)
	api.HandleFunc("/venues/{id:[0-9]+}/contacts", s.handleListContacts).Methods(http.MethodGet)
	api.HandleFunc("/venues/{id:[0-9]+}/contacts", s.handleLogContact).Methods(http.MethodPost)
	api.HandleFunc("/followups", s.handleFollowUps).Methods(http.MethodGet)

	// Shows
	api.HandleFunc("/shows", s.handleListShows).Methods(http.MethodGet)
	api.HandleFunc("/shows", s.handleCreateShow).Methods(http.MethodPost)
	api.HandleFunc("/shows/{id:[0-9]+}", s.handleGetShow).Methods(http.MethodGet)
	api.HandleFunc("/shows/{id:[0-9]+}/paid", s.handleMarkPaid).Methods(http.MethodPost)
	api.HandleFunc("/shows/{id:[0-9]+}/invoice", s.handleMarkInvoiceSent).Methods(http.MethodPost)
	api.HandleFunc("/shows/{id:[0-9]+}/cancel", s.handleCancelShow).Methods(http.MethodPost)

	// Recurring gigs
	api.HandleFunc("/gigs", s.handleListGigs).Methods(http.MethodGet)
	api.HandleFunc("/gigs", s.handleCreateGig).Methods(http.MethodPost)
	api.HandleFunc("/gigs/{id:[0-9]+}", s.handleGetGig).Methods(http.MethodGet)
	api.HandleFunc("/gigs/{id:[0-9]+}/deactivate", s.handleDeactivateGig).Methods(http.MethodPost)

	// Calendar exchange
	api.HandleFunc("/import/ics", s.handleImportICS).Methods(http.MethodPost)
	api.HandleFunc("/export.ics", s.handleExportICS).Methods(http.MethodGet)

	return router
}

// annotateRoute hands the matched path template to the request logger.
func annotateRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				middleware.AnnotateRoute(r.Context(), tmpl)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrVenueNotFound),
		errors.Is(err, store.ErrShowNotFound),
		errors.Is(err, store.ErrRecurringGigNotFound),
		errors.Is(err, store.ErrContactLogNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrShowExists):
		return http.StatusConflict
	case errors.Is(err, rules.ErrInconsistentRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, venues.ErrInvalidVenue),
		errors.Is(err, shows.ErrInvalidShow),
		errors.Is(err, contacts.ErrInvalidContact),
		errors.Is(err, recurrence.ErrInvalidPattern),
		errors.Is(err, rules.ErrInvalidWindow),
		errors.Is(err, reports.ErrInvalidYear),
		errors.Is(err, ics.ErrInvalidCalendar),
		errors.Is(err, ics.ErrEmptyCalendar):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}

	resp := errorResponse{Error: err.Error()}
	var patternErr *recurrence.PatternError
	if errors.As(err, &patternErr) {
		resp.Field = patternErr.Field
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Warn().Err(err).Msg("Failed to encode response")
		}
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// parseDate reads a YYYY-MM-DD value. An empty string yields nil.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, err
	}
	d := calendar.DateOf(t)
	return &d, nil
}

package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"gigbook/shared/go/models"
)

type showRequest struct {
	VenueID   *int64   `json:"venue_id"`
	Date      string   `json:"date"`
	PayAmount *float64 `json:"pay_amount"`
	Notes     string   `json:"notes"`
}

type dateRequest struct {
	Date string `json:"date"`
}

// handleListShows accepts venue_id, recurring_gig_id, from and to filters.
func (s *Server) handleListShows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.ShowFilter

	if raw := q.Get("venue_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue_id", Field: "venue_id"})
			return
		}
		filter.VenueID = &id
	}
	if raw := q.Get("recurring_gig_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid recurring_gig_id", Field: "recurring_gig_id"})
			return
		}
		filter.RecurringGigID = &id
	}
	from, err := parseDate(q.Get("from"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from date", Field: "from"})
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid to date", Field: "to"})
		return
	}
	filter.FromDate, filter.ToDate = from, to

	shows, err := s.shows.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if shows == nil {
		shows = []*models.Show{}
	}
	writeJSON(w, http.StatusOK, shows)
}

func (s *Server) handleCreateShow(w http.ResponseWriter, r *http.Request) {
	var req showRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date", Field: "date"})
		return
	}

	created, err := s.shows.Create(r.Context(), &models.Show{
		VenueID:   req.VenueID,
		Date:      dateOrZero(date),
		PayAmount: req.PayAmount,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetShow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid show ID"})
		return
	}

	show, err := s.shows.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, date, ok := showDateRequest(w, r)
	if !ok {
		return
	}

	show, err := s.shows.MarkPaid(r.Context(), id, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (s *Server) handleMarkInvoiceSent(w http.ResponseWriter, r *http.Request) {
	id, date, ok := showDateRequest(w, r)
	if !ok {
		return
	}

	show, err := s.shows.MarkInvoiceSent(r.Context(), id, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (s *Server) handleCancelShow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid show ID"})
		return
	}

	if err := s.shows.Cancel(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// showDateRequest reads the show id and an optional {"date": "..."} body.
// An empty body leaves the date nil so the service uses today.
func showDateRequest(w http.ResponseWriter, r *http.Request) (int64, *time.Time, bool) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid show ID"})
		return 0, nil, false
	}

	var req dateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return 0, nil, false
		}
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date", Field: "date"})
		return 0, nil, false
	}
	return id, date, true
}

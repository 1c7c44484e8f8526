package httpapi

import (
	"net/http"
	"strconv"

	"gigbook/internal/instances"
	"gigbook/shared/go/models"
)

type gigRequest struct {
	VenueID       int64              `json:"venue_id"`
	PayAmount     *float64           `json:"pay_amount"`
	PatternType   models.PatternType `json:"pattern_type"`
	DayOfWeek     *int               `json:"day_of_week"`
	DayOfMonth    *int               `json:"day_of_month"`
	Ordinal       *int               `json:"ordinal"`
	IntervalWeeks *int               `json:"interval_weeks"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
}

type createGigResponse struct {
	Gig  *models.RecurringGig `json:"gig"`
	Sync *instances.Result    `json:"sync,omitempty"`
}

func (s *Server) handleListGigs(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid active flag", Field: "active"})
			return
		}
		activeOnly = v
	}

	gigs, err := s.gigs.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if gigs == nil {
		gigs = []*models.RecurringGig{}
	}
	writeJSON(w, http.StatusOK, gigs)
}

// handleCreateGig stores the gig and returns the instances generated for it.
func (s *Server) handleCreateGig(w http.ResponseWriter, r *http.Request) {
	var req gigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil || start == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid start_date", Field: "start_date"})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid end_date", Field: "end_date"})
		return
	}

	gig, res, err := s.gigs.Create(r.Context(), &models.RecurringGig{
		VenueID:       req.VenueID,
		PayAmount:     req.PayAmount,
		PatternType:   req.PatternType,
		DayOfWeek:     req.DayOfWeek,
		DayOfMonth:    req.DayOfMonth,
		Ordinal:       req.Ordinal,
		IntervalWeeks: req.IntervalWeeks,
		StartDate:     *start,
		EndDate:       end,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGigResponse{Gig: gig, Sync: res})
}

func (s *Server) handleGetGig(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid gig ID"})
		return
	}

	gig, err := s.gigs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gig)
}

func (s *Server) handleDeactivateGig(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid gig ID"})
		return
	}
	cancelFuture := false
	if raw := r.URL.Query().Get("cancel_future"); raw != "" {
		cancelFuture, err = strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cancel_future flag", Field: "cancel_future"})
			return
		}
	}

	cancelled, err := s.gigs.Deactivate(r.Context(), id, cancelFuture)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cancelled_shows": cancelled})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	summary, err := s.gigs.Sync(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

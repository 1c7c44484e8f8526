package httpapi

import (
	"net/http"
	"time"

	"gigbook/shared/go/models"
)

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.venues.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venues)
}

func (s *Server) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	var venue models.Venue
	if err := decodeJSON(r, &venue); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := s.venues.Create(r.Context(), &venue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue ID"})
		return
	}

	venue, err := s.venues.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venue)
}

func (s *Server) handleUpdateVenue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue ID"})
		return
	}

	var venue models.Venue
	if err := decodeJSON(r, &venue); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	updated, err := s.venues.Update(r.Context(), id, &venue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteVenue removes the venue and reports what the cascade touched.
func (s *Server) handleDeleteVenue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue ID"})
		return
	}

	res, err := s.venues.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type contactRequest struct {
	ContactedAt  string                `json:"contacted_at"`
	Method       models.ContactMethod  `json:"method"`
	Outcome      models.ContactOutcome `json:"outcome"`
	FollowUpDate string                `json:"follow_up_date"`
	Notes        string                `json:"notes"`
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue ID"})
		return
	}

	logs, err := s.contacts.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleLogContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue ID"})
		return
	}

	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	contactedAt, err := parseDate(req.ContactedAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid contacted_at", Field: "contacted_at"})
		return
	}
	followUp, err := parseDate(req.FollowUpDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid follow_up_date", Field: "follow_up_date"})
		return
	}

	entry := &models.ContactLog{
		VenueID:      id,
		Method:       req.Method,
		Outcome:      req.Outcome,
		FollowUpDate: followUp,
		Notes:        req.Notes,
	}
	if contactedAt != nil {
		entry.ContactedAt = *contactedAt
	}

	logged, err := s.contacts.Log(r.Context(), entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, logged)
}

func (s *Server) handleFollowUps(w http.ResponseWriter, r *http.Request) {
	logs, err := s.contacts.PendingFollowUps(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*models.ContactLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// dateOrZero dereferences d, returning the zero time for nil.
func dateOrZero(d *time.Time) time.Time {
	if d == nil {
		return time.Time{}
	}
	return *d
}

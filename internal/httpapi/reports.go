package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"gigbook/internal/calendar"
)

// maxCalendarBytes bounds uploaded calendar files.
const maxCalendarBytes = 5 << 20

// importWindowDays is the default look-ahead when no "to" date is given.
const importWindowDays = 90

func (s *Server) handleSmartReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Smart(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleTaxReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid year"})
		return
	}

	rep, err := s.reports.Tax(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleImportICS proposes records for an uploaded calendar. The window
// defaults to today through 90 days out.
func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
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
	if from == nil {
		today := calendar.DateOf(s.now())
		from = &today
	}
	if to == nil {
		end := calendar.AddDays(*from, importWindowDays)
		to = &end
	}

	body := http.MaxBytesReader(w, r.Body, maxCalendarBytes)
	res, err := s.calendars.Import(r.Context(), body, *from, *to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	futureOnly := false
	if raw := r.URL.Query().Get("future"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid future flag", Field: "future"})
			return
		}
		futureOnly = v
	}

	var buf bytes.Buffer
	count, err := s.calendars.Export(r.Context(), &buf, futureOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="gigbook-%s.ics"`, s.now().Format(time.DateOnly)))
	w.Header().Set("X-Event-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

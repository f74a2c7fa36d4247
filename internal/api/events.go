package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/runloop/internal/model"
	"github.com/seantiz/runloop/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// listEventsResponse wraps the paginated list response.
type listEventsResponse struct {
	Events []*model.ConfigureEvent `json:"events"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	events, total, err := s.store.ListEvents(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list configure events", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	if events == nil {
		events = []*model.ConfigureEvent{}
	}

	s.writeJSON(w, http.StatusOK, listEventsResponse{
		Events: events,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ev, err := s.store.GetEvent(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "configure event not found")
		return
	}
	if err != nil {
		s.logger.Error("get configure event", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	s.writeJSON(w, http.StatusOK, ev)
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

package api

import (
	"net/http"
	"time"

	"github.com/seantiz/runloop/internal/model"
)

// handleConfigure re-runs backend configuration: a fresh execution
// context is installed as the process default and adopted by the server,
// and the previously adopted context is closed. The selection itself
// never changes; only the context instance does.
func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	ec, err := s.selector.Configure()
	if err != nil {
		s.logger.Error("configure backend", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to configure backend")
		return
	}
	s.adopt(ec)

	sel := s.selector.Describe()
	ev := &model.ConfigureEvent{
		ID:                model.NewID(),
		Platform:          sel.Platform,
		Backend:           string(sel.Backend),
		OptionalAvailable: sel.OptionalAvailable,
		RuntimeVersion:    sel.RuntimeVersion,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.RecordConfigure(r.Context(), ev); err != nil {
		s.logger.Error("record configure event", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to record configure event")
		return
	}

	s.writeJSON(w, http.StatusCreated, ev)
}

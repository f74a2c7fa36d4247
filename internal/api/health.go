package api

import "net/http"

// healthResponse reports liveness along with the execution backend the
// server currently runs on, so operators can spot a fallen-back instance
// from the health check alone.
type healthResponse struct {
	Status           string `json:"status"`
	Backend          string `json:"backend"`
	ContextInstalled bool   `json:"context_installed"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:           "ok",
		Backend:          string(s.selector.Kind()),
		ContextInstalled: s.Current() != nil,
	})
}

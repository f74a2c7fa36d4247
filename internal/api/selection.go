package api

import "net/http"

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.selector.Describe())
}

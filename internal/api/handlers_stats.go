package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	gen := s.orchestrator.Generator()
	stats := s.orchestrator.Stats()
	if gen == nil || stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"provider": gen.Name(),
		"model":    gen.Model(),
		"stats":    stats.Snapshot(),
	})
}

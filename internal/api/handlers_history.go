package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgallion1/stepwise/internal/pathstore"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// handleListHistory lists a student's completed jobs, newest first.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxHistoryLimit)
		}
	}

	entries, err := s.orchestrator.History().List(r.Context(), userID, limit)
	if err != nil {
		s.historyError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"solutions": entries})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	jobID, ok := requireJobID(w, chi.URLParam(r, "jobID"))
	if !ok {
		return
	}
	entry, err := s.orchestrator.History().Get(r.Context(), userID, jobID)
	if err != nil {
		s.historyError(w, "get", err)
		return
	}
	if entry == nil {
		jsonError(w, "solution not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteHistory removes one stored solution.
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	jobID, ok := requireJobID(w, chi.URLParam(r, "jobID"))
	if !ok {
		return
	}
	if err := s.orchestrator.History().Delete(r.Context(), userID, jobID); err != nil {
		s.historyError(w, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": jobID, "deleted": true})
}

// requireJobID accepts only job IDs this service issues.
func requireJobID(w http.ResponseWriter, id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		jsonError(w, "invalid job id", http.StatusBadRequest)
		return "", false
	}
	return parsed.String(), true
}

func (s *Server) historyError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, pathstore.ErrDisabled) {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Error("history "+op+" failed", "error", err)
	jsonError(w, "failed to "+op+" history: "+err.Error(), http.StatusBadGateway)
}

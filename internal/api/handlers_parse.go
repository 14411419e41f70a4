package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/stepwise/internal/parser"
)

// readRaw reads a raw model response from the request body.
func (s *Server) readRaw(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRawBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxRawBytes), http.StatusRequestEntityTooLarge)
			return "", false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return "", false
	}
	return string(data), true
}

// handleParseSolve parses a raw solve response. It never fails on content.
func (s *Server) handleParseSolve(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readRaw(w, r)
	if !ok {
		return
	}
	resp := parser.ParseSolveResponse(raw)
	s.metrics.ObserveSolve(resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleParseImprove parses a raw improve response, answering 422 when it has
// neither improved section.
func (s *Server) handleParseImprove(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readRaw(w, r)
	if !ok {
		return
	}
	res, err := parser.ParseImproveResponse(raw)
	s.metrics.ObserveImprove(res, err)
	if err != nil {
		body := map[string]any{"error": err.Error()}
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			s.log.Warn("improve parse failed", "keys", perr.Keys, "input_len", perr.InputLen)
			body["keys"] = perr.Keys
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/stepwise/internal/intake"
	"github.com/dgallion1/stepwise/internal/llm"
	"github.com/dgallion1/stepwise/internal/pipeline"
	"github.com/dgallion1/stepwise/internal/prompt"
)

// handleSolve accepts typed text and/or uploaded homework files and queues a
// solve job.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID, ok := requireUserID(w, r.FormValue("user_id"))
	if !ok {
		return
	}

	in := pipeline.Input{Solve: prompt.SolveInput{Text: strings.TrimSpace(r.FormValue("text"))}}
	for _, fh := range r.MultipartForm.File["files"] {
		filename := sanitizeFilename(fh.Filename)
		if !intake.IsSupported(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}
		data, err := s.readUpload(fh)
		if err != nil {
			jsonError(w, fmt.Sprintf("%s: %s", filename, err), http.StatusRequestEntityTooLarge)
			return
		}

		if intake.IsImage(filename) {
			if len(in.Images) >= s.cfg.MaxImages {
				jsonError(w, fmt.Sprintf("at most %d images per request", s.cfg.MaxImages), http.StatusBadRequest)
				return
			}
			in.Images = append(in.Images, llm.Image{MediaType: intake.ImageMediaType(filename), Data: data})
			continue
		}

		doc, err := intake.Extract(bytes.NewReader(data), filename, intake.Options{
			PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext,
		})
		if err != nil {
			s.log.Warn("document extraction failed", "filename", filename, "error", err)
			jsonError(w, "could not read "+filename, http.StatusUnprocessableEntity)
			return
		}
		in.Solve.Documents = append(in.Solve.Documents, prompt.Document{Title: doc.Title, Text: doc.Text})
	}

	if in.Solve.Text == "" && len(in.Images) == 0 && len(in.Solve.Documents) == 0 {
		jsonError(w, "text or at least one file is required", http.StatusBadRequest)
		return
	}

	s.submit(w, pipeline.NewJob(pipeline.ModeSolve, userID, in))
}

type improveRequest struct {
	UserID      string `json:"user_id"`
	Problem     string `json:"problem"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
	Feedback    string `json:"feedback"`
}

// handleImprove queues a revision of an earlier solution.
func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRawBytes)

	var req improveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	userID, ok := requireUserID(w, req.UserID)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Problem) == "" || strings.TrimSpace(req.Feedback) == "" {
		jsonError(w, "problem and feedback are required", http.StatusBadRequest)
		return
	}

	s.submit(w, pipeline.NewJob(pipeline.ModeImprove, userID, pipeline.Input{
		Improve: prompt.ImproveInput{
			Problem:     req.Problem,
			Answer:      req.Answer,
			Explanation: req.Explanation,
			Feedback:    req.Feedback,
		},
	}))
}

func (s *Server) submit(w http.ResponseWriter, job *pipeline.Job) {
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"mode":     job.Mode,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

var errTooLarge = errors.New("file too large")

func (s *Server) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, errTooLarge
	}
	return data, nil
}

var userIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// requireUserID checks that id is safe to embed in a storage path.
func requireUserID(w http.ResponseWriter, id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return "", false
	}
	if !userIDRe.MatchString(id) {
		jsonError(w, "user_id may only contain letters, digits, '-' and '_'", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

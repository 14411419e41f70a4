package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/stepwise/internal/config"
	"github.com/dgallion1/stepwise/internal/metrics"
	"github.com/dgallion1/stepwise/internal/pipeline"
)

// Server is the HTTP API server for stepwise.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	metrics      *metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. m may be nil, in which
// case /metrics is not served.
func NewServer(orch *pipeline.Orchestrator, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		metrics:      m,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.StepwiseAPIKey, s.log))

		r.Post("/api/parse/solve", s.handleParseSolve)
		r.Post("/api/parse/improve", s.handleParseImprove)

		r.Post("/api/solve", s.handleSolve)
		r.Post("/api/improve", s.handleImprove)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Get("/api/history", s.handleListHistory)
		r.Get("/api/history/{jobID}", s.handleGetHistory)
		r.Delete("/api/history/{jobID}", s.handleDeleteHistory)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

// Package metrics exposes parse and generation counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/stepwise/internal/parser"
)

const namespace = "stepwise"

// Metrics holds the collectors registered on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	problemsParsed  prometheus.Counter
	solveFallbacks  prometheus.Counter
	improveFailures prometheus.Counter
	stepsPerProblem prometheus.Histogram
	llmLatency      *prometheus.HistogramVec
	llmErrors       *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	jobs            *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		problemsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "problems_parsed_total",
			Help:      "Problems extracted from solve responses, excluding fallback records.",
		}),
		solveFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solve_fallbacks_total",
			Help:      "Solve responses that produced the unparsed fallback record.",
		}),
		improveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "improve_parse_failures_total",
			Help:      "Improve responses with neither an improved explanation nor answer.",
		}),
		stepsPerProblem: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "steps_per_problem",
			Help:      "Explanation steps per parsed problem.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12, 20},
		}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Model generation latency.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60, 120, 180},
		}, []string{"provider"}),
		llmErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_errors_total",
			Help:      "Failed model calls by provider and whether they were retryable.",
		}, []string{"provider", "retryable"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Raw response cache lookups by result.",
		}, []string{"result"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished jobs by mode and final status.",
		}, []string{"mode", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.problemsParsed,
		m.solveFallbacks,
		m.improveFailures,
		m.stepsPerProblem,
		m.llmLatency,
		m.llmErrors,
		m.cacheLookups,
		m.jobs,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSolve records the outcome of one ParseSolveResponse call.
func (m *Metrics) ObserveSolve(resp parser.SolveResponse) {
	if m == nil {
		return
	}
	if len(resp.Problems) == 1 && parser.IsFallback(resp.Problems[0]) {
		m.solveFallbacks.Inc()
		return
	}
	for _, p := range resp.Problems {
		m.problemsParsed.Inc()
		m.stepsPerProblem.Observe(float64(len(p.Steps)))
	}
}

// ObserveImprove records the outcome of one ParseImproveResponse call.
func (m *Metrics) ObserveImprove(res parser.ImproveResult, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.improveFailures.Inc()
		return
	}
	m.stepsPerProblem.Observe(float64(len(res.ImprovedSteps)))
}

func (m *Metrics) ObserveLLM(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) LLMError(provider string, retryable bool) {
	if m == nil {
		return
	}
	label := "false"
	if retryable {
		label = "true"
	}
	m.llmErrors.WithLabelValues(provider, label).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) JobFinished(mode, status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(mode, status).Inc()
}

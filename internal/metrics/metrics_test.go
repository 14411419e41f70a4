package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/stepwise/internal/parser"
)

func TestObserveSolve(t *testing.T) {
	m := New()

	m.ObserveSolve(parser.ParseSolveResponse("### PROBLEM_TEXT\na\n---PROBLEM_SEPARATOR---\n### PROBLEM_TEXT\nb"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.problemsParsed))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.solveFallbacks))

	m.ObserveSolve(parser.ParseSolveResponse("no headings"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.problemsParsed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solveFallbacks))
}

func TestObserveImprove(t *testing.T) {
	m := New()
	m.ObserveImprove(parser.ImproveResult{}, errors.New("x"))
	m.ObserveImprove(parser.ImproveResult{ImprovedAnswer: "1"}, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.improveFailures))
}

func TestLabelledCounters(t *testing.T) {
	m := New()
	m.LLMError("openai", true)
	m.LLMError("openai", true)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.JobFinished("solve", "completed")
	m.ObserveLLM("anthropic", 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.llmErrors.WithLabelValues("openai", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("solve", "completed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSolve(parser.SolveResponse{})
	m.ObserveImprove(parser.ImproveResult{}, nil)
	m.ObserveLLM("x", time.Second)
	m.LLMError("x", false)
	m.CacheLookup(true)
	m.JobFinished("solve", "failed")
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.JobFinished("improve", "failed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `stepwise_jobs_total{mode="improve",status="failed"} 1`)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/stepwise/internal/cache"
	"github.com/dgallion1/stepwise/internal/llm"
	"github.com/dgallion1/stepwise/internal/metrics"
	"github.com/dgallion1/stepwise/internal/parser"
	"github.com/dgallion1/stepwise/internal/pathstore"
	"github.com/dgallion1/stepwise/internal/prompt"
)

// Deps are the collaborators a worker needs. Cache, History and Metrics may
// be nil.
type Deps struct {
	Generator llm.Generator
	Prompts   prompt.Set
	Cache     *cache.Cache
	History   *pathstore.History
	Metrics   *metrics.Metrics
	Stats     *llm.Stats
	MaxTokens int
}

// Worker processes a single homework job.
type Worker struct {
	deps    Deps
	log     *slog.Logger
	backoff func(int) time.Duration
}

func NewWorker(deps Deps, log *slog.Logger) *Worker {
	return &Worker{deps: deps, log: log, backoff: Backoff}
}

// Process generates, parses and records one job. The job always ends in
// StatusCompleted or StatusFailed.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "user_id", job.UserID, "mode", job.Mode)
	gen := w.deps.Generator

	req := w.buildRequest(job)
	req.OnDelta = func(d string) { job.AddGenerated(len(d)) }
	key := cacheKey(job.Mode, gen.Model(), req)

	// Phase 1: Generate
	job.SetStatus(StatusGenerating, "generating")
	raw, cached := w.lookup(ctx, key, log)
	if !cached {
		start := time.Now()
		var err error
		raw, err = generateWithRetry(ctx, gen, req, w.backoff, log)
		elapsed := time.Since(start)
		if err != nil {
			w.deps.Metrics.LLMError(gen.Name(), IsRetryable(err))
			w.fail(job, "generating", fmt.Errorf("generate: %w", err), log)
			return
		}
		if w.deps.Stats != nil {
			w.deps.Stats.Record(elapsed)
		}
		w.deps.Metrics.ObserveLLM(gen.Name(), elapsed)
		log.Info("generation complete", "duration_ms", elapsed.Milliseconds(), "raw_len", len(raw))
	}
	job.setModel(gen.Model(), cached)

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	entry := pathstore.Entry{
		JobID:     job.ID,
		Mode:      string(job.Mode),
		Model:     gen.Model(),
		CreatedAt: job.CreatedAt,
	}
	cacheable := true
	switch job.Mode {
	case ModeSolve:
		resp := parser.ParseSolveResponse(raw)
		w.deps.Metrics.ObserveSolve(resp)
		if len(resp.Problems) == 1 && parser.IsFallback(resp.Problems[0]) {
			log.Warn("solve response had no recognizable sections", "raw_len", len(raw))
			cacheable = false
		}
		job.setSolve(resp)
		entry.Solve = &resp
		log.Info("parsed solve response", "problems", len(resp.Problems))
	case ModeImprove:
		res, err := parser.ParseImproveResponse(raw)
		w.deps.Metrics.ObserveImprove(res, err)
		if err != nil {
			var perr *parser.ParseError
			if errors.As(err, &perr) {
				log.Error("improve response parse failed", "keys", perr.Keys, "input_len", perr.InputLen)
			}
			w.fail(job, "parsing", err, log)
			return
		}
		job.setImprove(res)
		entry.Improve = &res
		log.Info("parsed improve response", "steps", len(res.ImprovedSteps))
	default:
		w.fail(job, "parsing", fmt.Errorf("unknown mode %q", job.Mode), log)
		return
	}

	if !cached && cacheable {
		if err := w.deps.Cache.Set(ctx, key, raw); err != nil {
			log.Warn("cache store failed", "error", err)
		}
	}

	// Phase 3: Record
	if err := w.deps.History.Save(ctx, job.UserID, entry); err != nil {
		log.Warn("history write failed", "error", err)
		job.AddError(fmt.Sprintf("history: %s", err))
	}

	job.SetStatus(StatusCompleted, "done")
	w.deps.Metrics.JobFinished(string(job.Mode), string(StatusCompleted))
}

func (w *Worker) buildRequest(job *Job) llm.Request {
	in := job.Input()
	req := llm.Request{MaxTokens: w.deps.MaxTokens}
	switch job.Mode {
	case ModeImprove:
		req.System = w.deps.Prompts.ImproveSystem
		req.Prompt = prompt.BuildImprovePrompt(in.Improve)
	default:
		solve := in.Solve
		solve.Images = len(in.Images)
		req.System = w.deps.Prompts.SolveSystem
		req.Prompt = prompt.BuildSolvePrompt(solve)
		req.Images = in.Images
	}
	return req
}

func (w *Worker) lookup(ctx context.Context, key string, log *slog.Logger) (string, bool) {
	if w.deps.Cache == nil {
		return "", false
	}
	raw, ok, err := w.deps.Cache.Get(ctx, key)
	if err != nil {
		log.Warn("cache lookup failed", "error", err)
		return "", false
	}
	w.deps.Metrics.CacheLookup(ok)
	if ok {
		log.Info("using cached response", "raw_len", len(raw))
	}
	return raw, ok
}

func (w *Worker) fail(job *Job, phase string, err error, log *slog.Logger) {
	log.Error("job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
	w.deps.Metrics.JobFinished(string(job.Mode), string(StatusFailed))
}

// cacheKey covers everything that changes the model's output, including the
// token limit, since a response cut off at a lower limit must not be reused.
func cacheKey(mode Mode, model string, req llm.Request) string {
	return cache.Key(cache.KeyParts{
		Mode:      string(mode),
		Model:     model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Prompt:    req.Prompt,
		Images:    imageBytes(req.Images),
	})
}

func imageBytes(images []llm.Image) [][]byte {
	out := make([][]byte, len(images))
	for i, img := range images {
		out[i] = img.Data
	}
	return out
}

package pipeline

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/stepwise/internal/llm"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	return llm.IsRetryable(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// MaxAttempts bounds model calls per job, including the first.
const MaxAttempts = 3

// generateWithRetry calls gen until it succeeds, fails with a non-retryable
// error, runs out of attempts, or ctx is done.
func generateWithRetry(ctx context.Context, gen llm.Generator, req llm.Request, backoff func(int) time.Duration, log *slog.Logger) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			return gen.Generate(ctx, req)
		},
		retry.Context(ctx),
		retry.Attempts(MaxAttempts),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return backoff(int(n))
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retryable generation error", "attempt", n, "error", err)
		}),
	)
}

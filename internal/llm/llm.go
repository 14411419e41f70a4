// Package llm talks to the model backends that write homework solutions.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/stepwise/internal/config"
)

// DefaultMaxTokens is used when a request does not set MaxTokens.
const DefaultMaxTokens = 8192

// Image is an attached photo of a homework page.
type Image struct {
	MediaType string // e.g. "image/png"
	Data      []byte
}

// Request is one generation call.
type Request struct {
	System    string
	Prompt    string
	Images    []Image
	MaxTokens int

	// OnDelta, when set, receives text as it is produced. Backends that do
	// not stream call it once with the whole response.
	OnDelta func(delta string)
}

// Generator produces a raw markdown response for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
	Name() string
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable reports whether err is or wraps a *RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// New returns the backend selected by cfg.LLMProvider.
func New(cfg config.Config) (Generator, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "", ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func maxTokens(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

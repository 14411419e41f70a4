package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const openAIDefaultModel = "gpt-4o"

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string        // Optional, for compatible servers
	Timeout    time.Duration // Optional
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIClient streams chat completions through the official OpenAI SDK.
type OpenAIClient struct {
	model  string
	client openai.Client
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// Retries are handled by the pipeline.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}
}

// Generate streams a chat completion, forwarding each content delta to
// req.OnDelta, and returns the accumulated text.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Images)+1)
	for _, img := range req.Images {
		url := "data:" + img.MediaType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
	}
	parts = append(parts, openai.TextContentPart(req.Prompt))

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(parts))

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens(req.MaxTokens))),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if req.OnDelta != nil {
			req.OnDelta(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return "", mapOpenAIError(err)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return sb.String(), nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return &RetryableError{
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
			}
		}
		if apiErr.Message != "" {
			return fmt.Errorf("openai error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("openai error (status %d)", apiErr.StatusCode)
	}
	return fmt.Errorf("openai stream: %w", err)
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Name() string { return ProviderOpenAI }

var _ Generator = (*OpenAIClient)(nil)

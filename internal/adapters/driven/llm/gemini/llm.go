// Package gemini provides an LLM service adapter for Google Gemini built on langchaingo.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/llm"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 120 * time.Second
)

const providerName = "gemini"

// rateLimitMarkers identify throttling in errors that carry no status code.
var rateLimitMarkers = []string{"429", "resource_exhausted", "resource has been exhausted", "rate limit"}

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model to use (default: gemini-1.5-flash).
	Model string

	// Timeout bounds a single generation (default: 120s).
	Timeout time.Duration

	// RequestsPerMinute caps outgoing requests. Zero disables the cap.
	RequestsPerMinute int
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	model   llms.Model
	name    string
	timeout time.Duration
	limiter *llm.RateLimiter
}

// NewLLMService creates a Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return NewLLMServiceWithModel(client, cfg), nil
}

// NewLLMServiceWithModel wraps an existing langchaingo model.
func NewLLMServiceWithModel(model llms.Model, cfg Config) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &LLMService{
		model:   model,
		name:    cfg.Model,
		timeout: cfg.Timeout,
		limiter: llm.NewRateLimiter(cfg.RequestsPerMinute),
	}
}

// Generate sends prompt as a single human message.
// Throttling responses are returned as *domain.RateLimitError.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	callOpts := []llms.CallOption{llms.WithModel(s.name)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}

	resp, err := s.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, callOpts...)
	if err != nil {
		err = classify(err)
		var rl *domain.RateLimitError
		if errors.As(err, &rl) {
			s.limiter.RecordRateLimit(rl.RetryAfter)
		}
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("gemini: no response candidates returned")
	}

	var out strings.Builder
	for _, choice := range resp.Choices {
		out.WriteString(choice.Content)
	}
	return out.String(), nil
}

// classify converts throttling errors into *domain.RateLimitError and
// wraps everything else.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return &domain.RateLimitError{
				Provider:   providerName,
				Message:    apiErr.Error(),
				RetryAfter: llm.ParseRetryAfter(apiErr.Header.Get("Retry-After"), time.Now()),
			}
		}
		return fmt.Errorf("gemini error (status %d): %w", apiErr.Code, err)
	}

	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return &domain.RateLimitError{Provider: providerName, Message: err.Error()}
		}
	}
	return fmt.Errorf("gemini: %w", err)
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.name
}

// Ping issues a one-token generation to validate the key and model.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.Generate(ctx, "ping", driven.GenerateOptions{MaxTokens: 1}); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

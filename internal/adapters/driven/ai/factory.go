// Package ai provides factory functions for creating extraction model adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/llm/gemini"
	openaillm "github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 15 * time.Second

// NewLLMService creates the configured LLM service without contacting the
// provider. A missing API key is reported with the environment variable to
// set. Runs use this: a Gemini ping is a billed generation, and throttling
// must surface inside the run where it is counted and flushed.
func NewLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if settings.Provider.IsValid() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrLLMUnavailable, settings.Provider.APIKeyEnv())
	}

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, domain.ErrLLMUnavailable
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and pings it. An
// exhausted quota is returned as *domain.QuotaExhaustedError; every other
// ping failure wraps domain.ErrLLMUnavailable.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := NewLLMService(ctx, settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, classifyPingError(settings.Provider, err)
	}
	return svc, nil
}

func classifyPingError(provider domain.AIProvider, err error) error {
	var rl *domain.RateLimitError
	if errors.As(err, &rl) && rl.IsQuota() {
		return &domain.QuotaExhaustedError{Provider: string(provider), Message: rl.Message}
	}
	return fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:            settings.APIKey,
			Model:             settings.Model,
			Timeout:           settings.Timeout,
			RequestsPerMinute: settings.RequestsPerMinute,
		})

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Timeout:           settings.Timeout,
		RequestsPerMinute: settings.RequestsPerMinute,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Timeout:           settings.Timeout,
		RequestsPerMinute: settings.RequestsPerMinute,
	})
}

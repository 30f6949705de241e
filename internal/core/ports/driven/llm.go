package driven

import "context"

// LLMService is the extraction model service. It accepts a text prompt and
// returns free-form text. No output schema is enforced by the service.
//
// Implementations must distinguish three failure modes:
//   - *domain.RateLimitError for HTTP 429 equivalents (retryable)
//   - *domain.RateLimitError whose IsQuota() is true for quota exhaustion
//   - any other error for generic failures
//
// Implementations include:
//   - Gemini (langchaingo googleai)
//   - OpenAI
//   - Anthropic
type LLMService interface {
	// Generate sends one prompt and returns the raw reply text.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping checks credentials without running an extraction.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens caps the reply. Zero leaves the provider default.
	MaxTokens int

	// Temperature is kept low for extraction; zero omits it from the request.
	Temperature float64
}

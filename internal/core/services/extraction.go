package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// charsPerToken is the fixed divisor used to estimate tokens from text length.
const charsPerToken = 4

// ExtractionClient runs extraction prompts against the model service.
// It owns retry with linear backoff on rate limits and turns quota
// signals into *domain.QuotaExhaustedError. Inter-call pacing belongs
// to the orchestrator.
type ExtractionClient struct {
	llm      driven.LLMService
	renderer *promptRenderer
	settings domain.PipelineSettings
	stats    driven.StatsRecorder
	sleep    sleepFunc
}

// NewExtractionClient creates an extraction client for one prompt set.
func NewExtractionClient(
	llm driven.LLMService,
	set *domain.PromptSet,
	settings domain.PipelineSettings,
	stats driven.StatsRecorder,
) (*ExtractionClient, error) {
	if llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	renderer, err := newPromptRenderer(set)
	if err != nil {
		return nil, err
	}
	return &ExtractionClient{
		llm:      llm,
		renderer: renderer,
		settings: settings,
		stats:    stats,
		sleep:    sleepContext,
	}, nil
}

// Extract renders the prompt for kind around data, calls the model and
// returns the first JSON value in the reply with the shape kind expects.
// A reply without one is a soft failure: nil result, nil error.
func (c *ExtractionClient) Extract(ctx context.Context, kind domain.PromptKind, data domain.PromptData) (any, error) {
	prompt, err := c.renderer.render(kind, data)
	if err != nil {
		return nil, err
	}

	reply, err := c.generate(ctx, kind, prompt)
	if err != nil {
		return nil, err
	}

	v, ok := scrapeJSON(reply, acceptsShape(kind))
	if !ok {
		logger.L().Warn().Str("document", data.DocumentName).Str("prompt", string(kind)).
			Int("reply_chars", len(reply)).Msg("no JSON in model reply")
		return nil, nil
	}
	return v, nil
}

// generate calls the model with up to MaxAttempts attempts.
func (c *ExtractionClient) generate(ctx context.Context, kind domain.PromptKind, prompt string) (string, error) {
	opts := driven.GenerateOptions{Temperature: 0.1}

	for attempt := 1; ; attempt++ {
		c.record(domain.StatAPICalls, 1)
		c.record(domain.StatInputTokens, int64(len(prompt)/charsPerToken))

		reply, err := c.llm.Generate(ctx, prompt, opts)
		if err == nil {
			c.record(domain.StatOutputTokens, int64(len(reply)/charsPerToken))
			return reply, nil
		}

		var quota *domain.QuotaExhaustedError
		if errors.As(err, &quota) {
			return "", err
		}

		var rl *domain.RateLimitError
		if !errors.As(err, &rl) {
			return "", fmt.Errorf("extract %s: %w", kind, err)
		}
		if rl.IsQuota() {
			logger.L().Error().Str("provider", rl.Provider).Str("prompt", string(kind)).Msg("quota exhausted")
			return "", &domain.QuotaExhaustedError{Provider: rl.Provider, Message: rl.Message}
		}
		if attempt >= c.settings.MaxAttempts {
			return "", fmt.Errorf("extract %s: gave up after %d attempts: %w", kind, attempt, err)
		}

		wait := c.settings.BaseDelay * time.Duration(attempt)
		if rl.RetryAfter > wait {
			wait = rl.RetryAfter
		}
		logger.L().Warn().Str("prompt", string(kind)).Int("attempt", attempt).
			Dur("wait", wait).Msg("rate limited, backing off")
		c.record(domain.StatRetries, 1)

		if err := c.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

func (c *ExtractionClient) record(kind domain.StatKind, delta int64) {
	if c.stats != nil {
		c.stats.RecordStat(kind, delta)
	}
}

func promptData(doc domain.SourceDocument, text string) domain.PromptData {
	return domain.PromptData{
		ManufacturerHint: doc.ManufacturerHint,
		DocumentName:     doc.Name,
		Text:             text,
	}
}

// ExtractMetadata runs the metadata prompt over the head of the document.
// A nil result with nil error means the reply was unusable.
func (c *ExtractionClient) ExtractMetadata(
	ctx context.Context, doc domain.SourceDocument, text *domain.RetrievedText,
) (*domain.ExtractedMetadata, error) {
	payload := text.Head(c.settings.MetadataPages, c.settings.MetadataChars)
	v, err := c.Extract(ctx, domain.PromptMetadata, promptData(doc, payload))
	if err != nil || v == nil {
		return nil, err
	}
	return parseMetadata(v), nil
}

// ExtractFaultCodes runs the fault code prompt over the full text.
// The bool reports whether the reply parsed; an empty list can be a valid answer.
func (c *ExtractionClient) ExtractFaultCodes(
	ctx context.Context, doc domain.SourceDocument, text *domain.RetrievedText,
) ([]domain.FaultCode, bool, error) {
	v, err := c.Extract(ctx, domain.PromptFaultCodes, promptData(doc, text.Full(c.settings.FullTextChars)))
	if err != nil || v == nil {
		return nil, false, err
	}
	return parseFaultCodes(v), true, nil
}

// ExtractProcedures runs the procedures prompt over the full text.
func (c *ExtractionClient) ExtractProcedures(
	ctx context.Context, doc domain.SourceDocument, text *domain.RetrievedText,
) ([]domain.Procedure, bool, error) {
	v, err := c.Extract(ctx, domain.PromptProcedures, promptData(doc, text.Full(c.settings.FullTextChars)))
	if err != nil || v == nil {
		return nil, false, err
	}
	return parseProcedures(v), true, nil
}

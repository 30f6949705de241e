package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, store or index type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the extraction model service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Extraction Errors.

	// ErrRateLimited indicates the extraction service rejected a request for
	// exceeding its short-window request rate. It is retryable.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExhausted indicates the caller's allotted usage for the period is
	// fully consumed. It is fatal to the run and never retried.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrParseFailure indicates the extraction service returned text with no usable JSON.
	ErrParseFailure = errors.New("parse failure")

	// Retrieval and Persistence Errors.

	// ErrRetrieval indicates a document could not be fetched.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrTextExtraction indicates per-page text could not be produced from document bytes.
	ErrTextExtraction = errors.New("text extraction failed")

	// ErrPersistence indicates a single record could not be written.
	ErrPersistence = errors.New("persistence failed")
)

// RetrievalError reports a failed fetch of a source document.
type RetrievalError struct {
	Origin     string
	StatusCode int
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Origin, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Origin, e.Err)
}

// Unwrap allows errors.Is(err, ErrRetrieval) and access to the transport error.
func (e *RetrievalError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRetrieval}
	}
	return []error{ErrRetrieval, e.Err}
}

// quotaMarkers identify quota exhaustion inside a rate-limit error message.
var quotaMarkers = []string{"quota", "resource_exhausted: daily", "insufficient_quota"}

// RateLimitError is returned by LLM adapters when the service signals HTTP 429
// or an equivalent. The message is kept verbatim so quota markers can be detected.
type RateLimitError struct {
	Provider string
	Message  string

	// RetryAfter is the server's suggested wait, zero when not supplied.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.Provider, e.Message)
}

// Unwrap allows errors.Is(err, ErrRateLimited).
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// IsQuota reports whether the rate-limit error carries a quota-exhaustion marker.
func (e *RateLimitError) IsQuota() bool {
	msg := strings.ToLower(e.Message)
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// QuotaExhaustedError stops the whole run. It propagates out of the
// per-document loop to the orchestrator.
type QuotaExhaustedError struct {
	Provider string
	Message  string
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("%s: quota exhausted: %s", e.Provider, e.Message)
}

// Unwrap allows errors.Is(err, ErrQuotaExhausted).
func (e *QuotaExhaustedError) Unwrap() error {
	return ErrQuotaExhausted
}

// IsQuotaExhausted reports whether err is, or wraps, a quota exhaustion.
func IsQuotaExhausted(err error) bool {
	return errors.Is(err, ErrQuotaExhausted)
}

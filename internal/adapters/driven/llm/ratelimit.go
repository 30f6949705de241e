// Package llm holds the pieces shared by the extraction model adapters:
// the client-side request limiter and HTTP status classification.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

// StatusOverloaded is Anthropic's "overloaded" status. It is treated like 429.
const StatusOverloaded = 529

// defaultRetryAfter is the backoff applied when a 429 carries no Retry-After.
const defaultRetryAfter = 60 * time.Second

// RateLimiter keeps requests under a per-minute ceiling and honours the
// Retry-After of the last rate-limit response. A nil *RateLimiter never blocks.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute requests with
// a burst of one. It returns nil when requestsPerMinute is not positive.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := retryAt.Sub(r.now()); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent immediately.
func (r *RateLimiter) Allow() bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()
	if r.now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}

// RecordRateLimit holds further requests back for retryAfter.
func (r *RateLimiter) RecordRateLimit(retryAfter time.Duration) {
	if r == nil {
		return
	}
	if retryAfter <= 0 {
		retryAfter = defaultRetryAfter
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = r.now().Add(retryAfter)
}

// IsRateLimitStatus reports whether an HTTP status means "slow down".
func IsRateLimitStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == StatusOverloaded
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
// It returns zero when the header is absent or unparseable.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// CheckResponse maps a non-200 response to an error. Rate-limit statuses
// become *domain.RateLimitError carrying the body verbatim so quota markers
// survive; everything else is a plain error.
func CheckResponse(provider string, resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if IsRateLimitStatus(resp.StatusCode) {
		return &domain.RateLimitError{
			Provider:   provider,
			Message:    strings.TrimSpace(string(body)),
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	return fmt.Errorf("%s error (status %d): %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// Client performs rate-limited JSON round trips against one provider API.
// Every request carries an X-Request-Id so provider logs can be matched
// against ours.
type Client struct {
	provider string
	baseURL  string
	http     *http.Client
	limiter  *RateLimiter
	auth     func(*http.Request)
}

// NewClient creates a client for provider rooted at baseURL. auth sets the
// credential headers on every request.
func NewClient(provider, baseURL string, timeout time.Duration, requestsPerMinute int, auth func(*http.Request)) *Client {
	return &Client{
		provider: provider,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		limiter:  NewRateLimiter(requestsPerMinute),
		auth:     auth,
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Limited reports whether a requests-per-minute ceiling is active.
func (c *Client) Limited() bool {
	return c.limiter != nil
}

// PostJSON sends in to path and decodes a 200 reply into out. Rate-limit
// statuses return *domain.RateLimitError and hold the limiter back for
// the advertised Retry-After.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	reqID := c.prepare(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	logger.L().Debug().
		Str("provider", c.provider).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Int("request_bytes", len(payload)).
		Int("response_bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("llm.request")

	if err := CheckResponse(c.provider, resp, body); err != nil {
		if IsRateLimitStatus(resp.StatusCode) {
			c.limiter.RecordRateLimit(ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()))
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Ping GETs path and expects 200. It validates credentials without
// running inference and bypasses the limiter. Rate-limit statuses return
// *domain.RateLimitError so quota exhaustion can be told apart.
func (c *Client) Ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create ping request: %w", c.provider, err)
	}
	c.prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: API returned status %d (failed to read body: %w)", c.provider, resp.StatusCode, err)
		}
		if IsRateLimitStatus(resp.StatusCode) {
			return CheckResponse(c.provider, resp, body)
		}
		return fmt.Errorf("%s: API returned status %d: %s", c.provider, resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) prepare(req *http.Request) string {
	id := uuid.NewString()
	req.Header.Set("X-Request-Id", id)
	if c.auth != nil {
		c.auth(req)
	}
	return id
}

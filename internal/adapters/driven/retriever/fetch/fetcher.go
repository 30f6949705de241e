// Package fetch retrieves source document bytes over HTTP or from the local filesystem.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.DocumentFetcher = (*Fetcher)(nil)

// DefaultTimeout bounds a single download.
const DefaultTimeout = 120 * time.Second

// Config holds fetcher configuration.
type Config struct {
	// BaseDir resolves relative origins. Empty means the working directory.
	BaseDir string

	// MaxBytes stops reading one byte past this size so oversized
	// documents are detected without downloading them whole. Zero means unlimited.
	MaxBytes int64

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// Client overrides the HTTP client.
	Client *http.Client
}

// Fetcher reads documents from http(s) URLs, file:// URLs and plain paths.
type Fetcher struct {
	client   *http.Client
	baseDir  string
	maxBytes int64
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client, baseDir: cfg.BaseDir, maxBytes: cfg.MaxBytes}
}

// Fetch returns the raw bytes of doc. Failures are *domain.RetrievalError.
func (f *Fetcher) Fetch(ctx context.Context, doc domain.SourceDocument) ([]byte, error) {
	origin := strings.TrimSpace(doc.Origin)
	if origin == "" {
		return nil, &domain.RetrievalError{Origin: doc.Name, Err: domain.ErrInvalidInput}
	}

	u, err := url.Parse(origin)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return f.fetchHTTP(ctx, origin)
		case "file":
			return f.fetchFile(u.Path, origin)
		}
	}
	return f.fetchFile(origin, origin)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, origin string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin, http.NoBody)
	if err != nil {
		return nil, &domain.RetrievalError{Origin: origin, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.RetrievalError{Origin: origin, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.RetrievalError{Origin: origin, StatusCode: resp.StatusCode}
	}
	return f.read(resp.Body, origin)
}

func (f *Fetcher) fetchFile(path, origin string) ([]byte, error) {
	if !filepath.IsAbs(path) && f.baseDir != "" {
		path = filepath.Join(f.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, &domain.RetrievalError{Origin: origin, Err: err}
	}
	defer file.Close()
	return f.read(file, origin)
}

func (f *Fetcher) read(r io.Reader, origin string) ([]byte, error) {
	if f.maxBytes > 0 {
		r = io.LimitReader(r, f.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &domain.RetrievalError{Origin: origin, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, nil
}

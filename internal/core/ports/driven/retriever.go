package driven

import (
	"context"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

// DocumentFetcher retrieves the raw bytes of a source document.
// Any non-success transport status is returned as *domain.RetrievalError.
type DocumentFetcher interface {
	Fetch(ctx context.Context, doc domain.SourceDocument) ([]byte, error)
}

// TextExtractor produces per-page plain text from document bytes.
// Page numbers are 1-based and page boundaries are preserved.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (*domain.RetrievedText, error)
}

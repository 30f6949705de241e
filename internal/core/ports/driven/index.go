package driven

import (
	"context"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

// IndexQuery bounds a candidate listing.
type IndexQuery struct {
	// Filter is a simple textual criterion on the document name.
	// Backends treat it as a SQL LIKE pattern.
	Filter string

	// Limit is the fixed row cap.
	Limit int

	// Exclude holds names already processed. Backends drop them before
	// applying Limit, so the cap always counts unprocessed rows.
	Exclude []string
}

// Excluded returns Exclude as a set.
func (q IndexQuery) Excluded() map[string]bool {
	set := make(map[string]bool, len(q.Exclude))
	for _, name := range q.Exclude {
		set[name] = true
	}
	return set
}

// DocumentIndex lists the candidate documents for a run. It is read-only.
type DocumentIndex interface {
	List(ctx context.Context, q IndexQuery) ([]domain.SourceDocument, error)
}

// DocumentIndexWriter loads candidate entries into a database-backed index.
// Existing entries with the same name are updated.
type DocumentIndexWriter interface {
	Add(ctx context.Context, docs []domain.SourceDocument) (int, error)
}

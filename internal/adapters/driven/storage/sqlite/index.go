package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Index is the manual_index table exposed as a document index.
type Index struct {
	store *Store
}

var (
	_ driven.DocumentIndex       = (*Index)(nil)
	_ driven.DocumentIndexWriter = (*Index)(nil)
)

// Index returns the document index backed by this store.
func (s *Store) Index() *Index {
	return &Index{store: s}
}

// List returns manuals whose name matches the LIKE filter and is not
// excluded, ordered by name.
// SQLite LIKE is case-insensitive for ASCII.
func (i *Index) List(ctx context.Context, q driven.IndexQuery) ([]domain.SourceDocument, error) {
	filter := q.Filter
	if filter == "" {
		filter = "%"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}

	exclude := q.Exclude
	if exclude == nil {
		exclude = []string{}
	}
	excludeJSON, err := json.Marshal(exclude)
	if err != nil {
		return nil, fmt.Errorf("encoding excluded names: %w", err)
	}

	rows, err := i.store.db.QueryContext(ctx, `
		SELECT name, origin, manufacturer FROM manual_index
		WHERE name LIKE ? AND name NOT IN (SELECT value FROM json_each(?))
		ORDER BY name LIMIT ?
	`, filter, string(excludeJSON), limit)
	if err != nil {
		return nil, fmt.Errorf("querying manual index: %w", err)
	}
	defer rows.Close()

	var docs []domain.SourceDocument //nolint:prealloc // size unknown from query
	for rows.Next() {
		var d domain.SourceDocument
		if err := rows.Scan(&d.Name, &d.Origin, &d.ManufacturerHint); err != nil {
			return nil, fmt.Errorf("scanning manual index: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manual index: %w", err)
	}
	return docs, nil
}

// Add stores or updates index entries and returns how many were written.
func (i *Index) Add(ctx context.Context, docs []domain.SourceDocument) (int, error) {
	tx, err := i.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, d := range docs {
		if d.Name == "" || d.Origin == "" {
			return 0, fmt.Errorf("%w: index entry needs a name and origin", domain.ErrInvalidInput)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO manual_index (name, origin, manufacturer) VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET origin = excluded.origin, manufacturer = excluded.manufacturer
		`, d.Name, d.Origin, d.ManufacturerHint); err != nil {
			return 0, fmt.Errorf("saving index entry %s: %w", d.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing index entries: %w", err)
	}
	return len(docs), nil
}

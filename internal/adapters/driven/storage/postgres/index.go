package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Index is the manual_index table exposed as a document index.
type Index struct {
	pool *pgxpool.Pool
}

var (
	_ driven.DocumentIndex       = (*Index)(nil)
	_ driven.DocumentIndexWriter = (*Index)(nil)
)

// Index returns the document index backed by this store's pool.
func (s *Store) Index() *Index {
	return &Index{pool: s.pool}
}

// List returns manuals whose name matches the ILIKE filter, ordered by name.
func (i *Index) List(ctx context.Context, q driven.IndexQuery) ([]domain.SourceDocument, error) {
	sql, args := indexQuery(q)
	rows, err := i.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying manual index: %w", err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SourceDocument, error) {
		var d domain.SourceDocument
		err := row.Scan(&d.Name, &d.Origin, &d.ManufacturerHint)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading manual index: %w", err)
	}
	return docs, nil
}

// indexQuery builds the listing statement. A non-positive limit is no cap.
// Excluded names are passed as one text[] parameter.
func indexQuery(q driven.IndexQuery) (string, []any) {
	filter := q.Filter
	if filter == "" {
		filter = "%"
	}
	exclude := q.Exclude
	if exclude == nil {
		// A NULL array would exclude every row.
		exclude = []string{}
	}
	sql := `SELECT name, origin, manufacturer FROM manual_index
		WHERE name ILIKE $1 AND NOT (name = ANY($2::text[])) ORDER BY name`
	if q.Limit > 0 {
		return sql + ` LIMIT $3`, []any{filter, exclude, q.Limit}
	}
	return sql, []any{filter, exclude}
}

// Add stores or updates index entries in one batch.
func (i *Index) Add(ctx context.Context, docs []domain.SourceDocument) (int, error) {
	batch := &pgx.Batch{}
	for _, d := range docs {
		if d.Name == "" || d.Origin == "" {
			return 0, fmt.Errorf("%w: index entry needs a name and origin", domain.ErrInvalidInput)
		}
		batch.Queue(`
			INSERT INTO manual_index (name, origin, manufacturer) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET origin = EXCLUDED.origin, manufacturer = EXCLUDED.manufacturer
		`, d.Name, d.Origin, d.ManufacturerHint)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("saving index entries: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing index entries: %w", err)
	}
	return len(docs), nil
}

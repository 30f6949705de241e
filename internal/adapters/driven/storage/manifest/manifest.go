// Package manifest provides a document index read from a YAML file.
//
// A manifest lists candidate manuals:
//
//	manuals:
//	  - name: greenstar-30i.pdf
//	    url: https://example.com/manuals/greenstar-30i.pdf
//	    manufacturer: Worcester
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

var _ driven.DocumentIndex = (*Index)(nil)

// Entry is one manual in the manifest.
type Entry struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	Manufacturer string `yaml:"manufacturer"`
}

type file struct {
	Manuals []Entry `yaml:"manuals"`
}

// Index reads candidates from a manifest file on every List call.
type Index struct {
	path string
}

// New returns an index over the manifest at path.
func New(path string) *Index {
	return &Index{path: path}
}

// Path returns the manifest path.
func (i *Index) Path() string {
	return i.path
}

// List returns entries whose name matches the LIKE-style filter, ordered by
// name and capped at the limit. Relative local origins resolve against the
// manifest's directory.
func (i *Index) List(ctx context.Context, q driven.IndexQuery) ([]domain.SourceDocument, error) {
	entries, err := i.load()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := filepath.Dir(i.path)
	seen := q.Excluded()
	var docs []domain.SourceDocument
	for n, e := range entries {
		if e.Name == "" || e.URL == "" {
			return nil, fmt.Errorf("%w: manifest entry %d needs a name and url", domain.ErrInvalidInput, n+1)
		}
		if seen[e.Name] {
			// Duplicate or already processed.
			continue
		}
		seen[e.Name] = true
		if !memory.MatchLike(e.Name, q.Filter) {
			continue
		}
		docs = append(docs, domain.SourceDocument{
			Name:             e.Name,
			Origin:           resolve(base, e.URL),
			ManufacturerHint: e.Manufacturer,
		})
	}

	sort.Slice(docs, func(a, b int) bool { return docs[a].Name < docs[b].Name })
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (i *Index) load() ([]Entry, error) {
	data, err := os.ReadFile(i.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: manifest %s", domain.ErrNotFound, i.path)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest: %v", domain.ErrInvalidInput, err)
	}
	return f.Manuals, nil
}

func resolve(base, origin string) string {
	if strings.Contains(origin, "://") || filepath.IsAbs(origin) {
		return origin
	}
	return filepath.Join(base, origin)
}

package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Ensure DocumentIndex implements the interface.
var _ driven.DocumentIndex = (*DocumentIndex)(nil)

// DocumentIndex is an in-memory implementation of driven.DocumentIndex.
type DocumentIndex struct {
	mu   sync.RWMutex
	docs []domain.SourceDocument
}

// NewDocumentIndex creates an index over docs, listed in the given order.
func NewDocumentIndex(docs ...domain.SourceDocument) *DocumentIndex {
	return &DocumentIndex{docs: append([]domain.SourceDocument(nil), docs...)}
}

// Add appends a document to the index.
func (s *DocumentIndex) Add(doc domain.SourceDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
}

// List returns unexcluded documents whose name matches the LIKE-style filter,
// up to the limit.
func (s *DocumentIndex) List(_ context.Context, q driven.IndexQuery) ([]domain.SourceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	excluded := q.Excluded()
	var out []domain.SourceDocument
	for _, d := range s.docs {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		if MatchLike(d.Name, q.Filter) && !excluded[d.Name] {
			out = append(out, d)
		}
	}
	return out, nil
}

// MatchLike reports whether s matches a case-insensitive SQL LIKE pattern
// where % matches any run and _ matches one character. An empty pattern matches everything.
func MatchLike(s, pattern string) bool {
	if pattern == "" {
		return true
	}
	return likeMatch([]rune(strings.ToLower(s)), []rune(strings.ToLower(pattern)))
}

func likeMatch(s, p []rune) bool {
	for len(p) > 0 {
		switch p[0] {
		case '%':
			for len(p) > 0 && p[0] == '%' {
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if likeMatch(s[i:], p) {
					return true
				}
			}
			return false
		case '_':
			if len(s) == 0 {
				return false
			}
		default:
			if len(s) == 0 || s[0] != p[0] {
				return false
			}
		}
		s, p = s[1:], p[1:]
	}
	return len(s) == 0
}

package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

// PrioritiseDocuments orders documents by the manufacturer priority list.
// A document ranks at the first priority entry found (case-insensitively)
// in its manufacturer hint. Unmatched documents sort last and ties keep
// their original relative order.
func PrioritiseDocuments(docs []domain.SourceDocument, priority []string) []domain.SourceDocument {
	out := make([]domain.SourceDocument, len(docs))
	copy(out, docs)
	if len(priority) == 0 {
		return out
	}

	lowered := make([]string, 0, len(priority))
	for _, p := range priority {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}

	rank := func(d domain.SourceDocument) int {
		hint := strings.ToLower(d.ManufacturerHint)
		if hint == "" {
			return len(lowered)
		}
		for i, p := range lowered {
			if strings.Contains(hint, p) {
				return i
			}
		}
		return len(lowered)
	}

	ranks := make(map[int]int, len(out))
	for i, d := range out {
		ranks[i] = rank(d)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ranks[idx[a]] < ranks[idx[b]] })

	sorted := make([]domain.SourceDocument, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

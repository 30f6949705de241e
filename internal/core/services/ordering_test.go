package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

func names(docs []domain.SourceDocument) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

func TestPrioritiseDocuments(t *testing.T) {
	docs := []domain.SourceDocument{
		{Name: "1", ManufacturerHint: "Glow-worm"},
		{Name: "2", ManufacturerHint: "VAILLANT"},
		{Name: "3"},
		{Name: "4", ManufacturerHint: "Ideal Boilers"},
		{Name: "5", ManufacturerHint: "vaillant ecotec"},
	}

	tests := []struct {
		name     string
		priority []string
		want     []string
	}{
		{"no priority keeps order", nil, []string{"1", "2", "3", "4", "5"}},
		{"case insensitive and stable", []string{"vaillant", "ideal"}, []string{"2", "5", "4", "1", "3"}},
		{"blank entries ignored", []string{" ", "Glow"}, []string{"1", "2", "3", "4", "5"}},
		{"first match wins", []string{"ideal", "boilers"}, []string{"4", "1", "2", "3", "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(PrioritiseDocuments(docs, tt.priority)))
		})
	}
}

func TestPrioritiseDocuments_DoesNotMutateInput(t *testing.T) {
	docs := []domain.SourceDocument{{Name: "a"}, {Name: "b", ManufacturerHint: "Baxi"}}
	_ = PrioritiseDocuments(docs, []string{"baxi"})
	assert.Equal(t, "a", docs[0].Name)
}

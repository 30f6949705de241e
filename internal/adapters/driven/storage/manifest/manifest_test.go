package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

const sample = `
manuals:
  - name: worcester-greenstar-30i.pdf
    url: https://example.com/manuals/greenstar.pdf
    manufacturer: Worcester
  - name: ideal-logic-combi.PDF
    url: manuals/ideal.pdf
    manufacturer: Ideal
  - name: vaillant-ecotec.pdf
    url: /srv/manuals/vaillant.pdf
  - name: readme.txt
    url: manuals/readme.txt
  - name: worcester-greenstar-30i.pdf
    url: https://example.com/duplicate.pdf
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIndex_List(t *testing.T) {
	path := writeManifest(t, sample)
	idx := New(path)

	docs, err := idx.List(context.Background(), driven.IndexQuery{Filter: "%.pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "ideal-logic-combi.PDF", docs[0].Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "manuals/ideal.pdf"), docs[0].Origin)
	assert.Equal(t, "Ideal", docs[0].ManufacturerHint)

	assert.Equal(t, "/srv/manuals/vaillant.pdf", docs[1].Origin)
	assert.Empty(t, docs[1].ManufacturerHint)

	assert.Equal(t, "https://example.com/manuals/greenstar.pdf", docs[2].Origin)
}

func TestIndex_ListExcludesBeforeLimit(t *testing.T) {
	idx := New(writeManifest(t, sample))

	docs, err := idx.List(context.Background(), driven.IndexQuery{
		Filter:  "%.pdf",
		Limit:   1,
		Exclude: []string{"ideal-logic-combi.PDF"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "vaillant-ecotec.pdf", docs[0].Name)
}

func TestIndex_ListLimitAndNoFilter(t *testing.T) {
	idx := New(writeManifest(t, sample))

	docs, err := idx.List(context.Background(), driven.IndexQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = idx.List(context.Background(), driven.IndexQuery{})
	require.NoError(t, err)
	assert.Len(t, docs, 4)
}

func TestIndex_Errors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml")).List(context.Background(), driven.IndexQuery{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = New(writeManifest(t, "manuals: [oops")).List(context.Background(), driven.IndexQuery{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(writeManifest(t, "manuals:\n  - name: a.pdf\n")).List(context.Background(), driven.IndexQuery{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(writeManifest(t, sample)).List(ctx, driven.IndexQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

func TestProgressStore_RoundTrip(t *testing.T) {
	store := NewProgressStore("a.pdf")

	names, err := store.LoadProcessed()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, names)

	_, err = store.LoadSnapshot()
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SaveProcessed([]string{"a.pdf", "b.pdf"}))
	require.NoError(t, store.Save(driven.ProgressSnapshot{
		Processed: []string{"a.pdf", "b.pdf", "c.pdf"},
		Outcome:   domain.RunCompleted,
	}))

	names, _ = store.LoadProcessed()
	assert.Len(t, names, 3)
	snap, err := store.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, snap.Outcome)
	assert.Equal(t, 1, store.Saves)
}

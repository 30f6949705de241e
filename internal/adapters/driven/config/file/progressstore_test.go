package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

func TestProgressStore_LoadProcessed_Missing(t *testing.T) {
	store, err := NewProgressStore(t.TempDir())
	require.NoError(t, err)

	names, err := store.LoadProcessed()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestProgressStore_SaveProcessed_Sorted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProgressStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.SaveProcessed([]string{"vaillant.pdf", "ideal.pdf", "worcester.pdf"}))

	data, err := os.ReadFile(filepath.Join(dir, ProcessedFile))
	require.NoError(t, err)
	var raw []string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []string{"ideal.pdf", "vaillant.pdf", "worcester.pdf"}, raw)

	names, err := store.LoadProcessed()
	require.NoError(t, err)
	assert.Equal(t, raw, names)
}

func TestProgressStore_SaveAndLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProgressStore(dir)
	require.NoError(t, err)

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := driven.ProgressSnapshot{
		Processed: []string{"b.pdf", "a.pdf"},
		Stats: domain.RunStatistics{
			RunID:               "run-1",
			Model:               "gemini-1.5-flash",
			StartedAt:           started,
			DocumentsProcessed:  2,
			FaultCodesPersisted: 14,
			InputTokens:         120000,
		},
		Cost:    domain.CostEstimate{Model: "gemini-1.5-flash", PricingKnown: true, SessionCost: 0.01},
		Outcome: domain.RunStoppedByQuota,
		Summary: "Run run-1 stopped by quota\n",
	}
	require.NoError(t, store.Save(snap))

	for _, f := range []string{ProcessedFile, StatsFile, SummaryFile} {
		info, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, f)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), f)
	}

	got, err := store.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, got.Processed)
	assert.Equal(t, domain.RunStoppedByQuota, got.Outcome)
	assert.Equal(t, 14, got.Stats.FaultCodesPersisted)
	assert.Equal(t, int64(120000), got.Stats.InputTokens)
	assert.True(t, got.Stats.StartedAt.Equal(started))
	assert.InDelta(t, 0.01, got.Cost.SessionCost, 1e-9)
	assert.Equal(t, "Run run-1 stopped by quota\n", got.Summary)
}

func TestProgressStore_LoadSnapshot_NotFound(t *testing.T) {
	store, err := NewProgressStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadSnapshot()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProgressStore_CorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProgressStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ProcessedFile), []byte("{not json"), 0600))
	_, err = store.LoadProcessed()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, os.WriteFile(filepath.Join(dir, StatsFile), []byte("[]"), 0600))
	_, err = store.LoadSnapshot()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProgressStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProgressStore(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(driven.ProgressSnapshot{Processed: []string{"a.pdf"}, Outcome: domain.RunRunning}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{ProcessedFile, StatsFile, SummaryFile}, names)
}

func TestNewProgressStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "nested")

	store, err := NewProgressStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

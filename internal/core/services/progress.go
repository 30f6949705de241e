package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// Ensure ProgressTracker implements the interface.
var _ driven.StatsRecorder = (*ProgressTracker)(nil)

// ProgressTracker owns the processed set and the run statistics.
// The pipeline is sequential, so no locking is needed. A nil store
// keeps everything in memory (dry runs).
type ProgressTracker struct {
	store     driven.ProgressStore
	pricing   domain.PricingTable
	processed map[string]bool
	stats     domain.RunStatistics
	outcome   domain.RunOutcome
	remaining int
	now       func() time.Time
}

// NewProgressTracker creates a tracker for one run.
func NewProgressTracker(store driven.ProgressStore, pricing domain.PricingTable, runID, model, promptSet string) *ProgressTracker {
	t := &ProgressTracker{
		store:     store,
		pricing:   pricing,
		processed: make(map[string]bool),
		outcome:   domain.RunRunning,
		now:       time.Now,
	}
	t.stats = domain.RunStatistics{
		RunID:     runID,
		Model:     model,
		PromptSet: promptSet,
		StartedAt: t.now(),
	}
	return t
}

// Load reads the processed set from durable storage.
func (t *ProgressTracker) Load() error {
	if t.store == nil {
		return nil
	}
	names, err := t.store.LoadProcessed()
	if err != nil {
		return fmt.Errorf("load processed set: %w", err)
	}
	for _, n := range names {
		t.processed[n] = true
	}
	logger.Info("Loaded %d processed documents", len(names))
	return nil
}

// IsProcessed reports whether name reached a terminal state in any run.
func (t *ProgressTracker) IsProcessed(name string) bool {
	return t.processed[name]
}

// MarkProcessed adds name to the processed set and persists the set.
// Only terminal documents are marked; transient failures stay out so a
// later run retries them.
func (t *ProgressTracker) MarkProcessed(name string) error {
	if t.processed[name] {
		return nil
	}
	t.processed[name] = true
	if t.store == nil {
		return nil
	}
	if err := t.store.SaveProcessed(t.processedNames()); err != nil {
		return fmt.Errorf("save processed set: %w", err)
	}
	return nil
}

// ProcessedCount returns the size of the processed set.
func (t *ProgressTracker) ProcessedCount() int {
	return len(t.processed)
}

// RecordStat adds delta to a statistics counter.
func (t *ProgressTracker) RecordStat(kind domain.StatKind, delta int64) {
	t.stats.Add(kind, delta)
}

// SetRemaining sets the number of candidates still to process, for cost projection.
func (t *ProgressTracker) SetRemaining(n int) {
	if n < 0 {
		n = 0
	}
	t.remaining = n
}

// SetOutcome records the run-level state.
func (t *ProgressTracker) SetOutcome(o domain.RunOutcome) {
	t.outcome = o
	if o != domain.RunRunning {
		t.stats.FinishedAt = t.now()
	}
}

// Stats returns a copy of the current statistics.
func (t *ProgressTracker) Stats() domain.RunStatistics {
	return t.stats
}

// Outcome returns the current run state.
func (t *ProgressTracker) Outcome() domain.RunOutcome {
	return t.outcome
}

// Cost computes the current cost estimate.
func (t *ProgressTracker) Cost() domain.CostEstimate {
	return domain.EstimateCost(t.pricing, t.stats, t.remaining)
}

// Flush writes the processed set, the statistics snapshot and the summary.
// Milestones, quota stops, interrupts and run end all go through here.
// It is safe to call repeatedly.
func (t *ProgressTracker) Flush() error {
	t.stats.UpdatedAt = t.now()
	cost := t.Cost()
	snap := driven.ProgressSnapshot{
		Processed: t.processedNames(),
		Stats:     t.stats,
		Cost:      cost,
		Outcome:   t.outcome,
	}
	snap.Summary = RenderSummary(snap)

	if t.store == nil {
		return nil
	}
	if err := t.store.Save(snap); err != nil {
		return fmt.Errorf("flush progress: %w", err)
	}
	logger.Debug("Flushed progress: %d processed, outcome %s", len(snap.Processed), t.outcome)
	return nil
}

func (t *ProgressTracker) processedNames() []string {
	names := make([]string, 0, len(t.processed))
	for n := range t.processed {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

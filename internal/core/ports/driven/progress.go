package driven

import "github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"

// ProgressSnapshot is everything written on a flush.
type ProgressSnapshot struct {
	Processed []string
	Stats     domain.RunStatistics
	Cost      domain.CostEstimate
	Outcome   domain.RunOutcome
	Summary   string
}

// ProgressStore is durable local state. Files are read and written
// wholesale and each write replaces its target atomically.
type ProgressStore interface {
	// LoadProcessed returns the processed set. A missing file is an empty set.
	LoadProcessed() ([]string, error)

	// SaveProcessed writes only the processed set.
	SaveProcessed(names []string) error

	// Save writes the processed set, the statistics snapshot and the summary.
	Save(snap ProgressSnapshot) error

	// LoadSnapshot reads the last written statistics, for status reporting.
	LoadSnapshot() (*ProgressSnapshot, error)
}

// StatsRecorder receives counter updates.
type StatsRecorder interface {
	RecordStat(kind domain.StatKind, delta int64)
}

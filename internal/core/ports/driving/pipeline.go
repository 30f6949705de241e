package driving

import (
	"context"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

// Pipeline runs one batch over the document index.
type Pipeline interface {
	// Run processes candidates until a stop condition fires. A quota stop or
	// interrupt is reported through RunResult.Outcome, not as an error.
	Run(ctx context.Context) (*domain.RunResult, error)
}

// StatusReporter exposes the last flushed run state.
type StatusReporter interface {
	// Status returns the processed count and last statistics snapshot.
	Status(ctx context.Context) (*RunStatus, error)
}

// RunStatus is the state reported by the status command.
type RunStatus struct {
	ProcessedCount int                   `json:"processed_count"`
	Outcome        domain.RunOutcome     `json:"outcome,omitempty"`
	Stats          *domain.RunStatistics `json:"statistics,omitempty"`
	Cost           *domain.CostEstimate  `json:"cost,omitempty"`
}

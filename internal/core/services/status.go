package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusReporter = (*StatusService)(nil)

// StatusService reports the last flushed run state.
type StatusService struct {
	store driven.ProgressStore
}

// NewStatusService creates a status service.
func NewStatusService(store driven.ProgressStore) *StatusService {
	return &StatusService{store: store}
}

// Status returns the processed count and, when a run has flushed, its
// statistics and cost.
func (s *StatusService) Status(_ context.Context) (*driving.RunStatus, error) {
	names, err := s.store.LoadProcessed()
	if err != nil {
		return nil, fmt.Errorf("load processed set: %w", err)
	}
	status := &driving.RunStatus{ProcessedCount: len(names)}

	snap, err := s.store.LoadSnapshot()
	if errors.Is(err, domain.ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load run statistics: %w", err)
	}
	status.Outcome = snap.Outcome
	status.Stats = &snap.Stats
	status.Cost = &snap.Cost
	return status, nil
}

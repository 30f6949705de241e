package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// ExportService gathers persisted records and the last run summary for a workbook.
type ExportService struct {
	lister   driven.RecordLister
	progress driven.ProgressStore
	writer   driven.WorkbookWriter
}

// NewExportService creates an export service. progress may be nil.
func NewExportService(lister driven.RecordLister, progress driven.ProgressStore, writer driven.WorkbookWriter) *ExportService {
	return &ExportService{lister: lister, progress: progress, writer: writer}
}

// Export writes every record to path and returns the row counts.
func (s *ExportService) Export(ctx context.Context, path string) (*driven.ExportData, error) {
	var data driven.ExportData
	var err error

	if data.Models, err = s.lister.ListModels(ctx); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	if data.FaultCodes, err = s.lister.ListFaultCodes(ctx); err != nil {
		return nil, fmt.Errorf("list fault codes: %w", err)
	}
	if data.Procedures, err = s.lister.ListProcedures(ctx); err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	if data.Manuals, err = s.lister.ListManuals(ctx); err != nil {
		return nil, fmt.Errorf("list manuals: %w", err)
	}

	if s.progress != nil {
		snap, err := s.progress.LoadSnapshot()
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("load run statistics: %w", err)
		default:
			data.Summary = snap
		}
	}

	if err := s.writer.WriteWorkbook(path, data); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &data, nil
}

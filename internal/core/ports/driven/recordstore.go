package driven

import (
	"context"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

// RecordStore persists extracted records. Every write is an idempotent
// insert: an existing row with the same conflict key is left untouched.
// No transaction spans the writes for one document.
//
// Conflict targets:
//   - models: (gc_number, manufacturer)
//   - fault codes: (gc_number, fault_code, cause_key)
//   - procedures: (gc_number, name)
//   - sections: (gc_number, title, section_order)
//   - manuals: (name)
//
// The insert methods report whether a new row was written.
type RecordStore interface {
	UpsertModel(ctx context.Context, m domain.EquipmentModel) (bool, error)
	InsertFaultCode(ctx context.Context, r domain.FaultCodeRecord) (bool, error)
	InsertProcedure(ctx context.Context, r domain.ProcedureRecord) (bool, error)
	InsertSection(ctx context.Context, r domain.SectionRecord) (bool, error)
	UpsertManual(ctx context.Context, r domain.ManualRecord) error

	// Close releases resources.
	Close() error
}

// RecordLister reads persisted records back, for export.
type RecordLister interface {
	ListModels(ctx context.Context) ([]domain.EquipmentModel, error)
	ListFaultCodes(ctx context.Context) ([]domain.FaultCodeRecord, error)
	ListProcedures(ctx context.Context) ([]domain.ProcedureRecord, error)
	ListManuals(ctx context.Context) ([]domain.ManualRecord, error)
}

// ExportData is everything written to an export workbook.
type ExportData struct {
	Models     []domain.EquipmentModel
	FaultCodes []domain.FaultCodeRecord
	Procedures []domain.ProcedureRecord
	Manuals    []domain.ManualRecord

	// Summary is the last run snapshot, nil if no run has flushed.
	Summary *ProgressSnapshot
}

// WorkbookWriter writes export data to a spreadsheet file.
type WorkbookWriter interface {
	WriteWorkbook(path string, data ExportData) error
}

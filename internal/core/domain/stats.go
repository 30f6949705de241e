package domain

import "time"

// StatKind names a RunStatistics counter.
type StatKind string

// Statistic counters updated during a run.
const (
	StatDocumentsProcessed   StatKind = "documents_processed"
	StatDocumentsSkipped     StatKind = "documents_skipped"
	StatDocumentsFailed      StatKind = "documents_failed"
	StatIdentifiersFound     StatKind = "identifiers_found"
	StatPlaceholdersAssigned StatKind = "placeholders_assigned"
	StatModelsPersisted      StatKind = "models_persisted"
	StatFaultCodesPersisted  StatKind = "fault_codes_persisted"
	StatProceduresPersisted  StatKind = "procedures_persisted"
	StatSectionsPersisted    StatKind = "sections_persisted"
	StatAPICalls             StatKind = "api_calls"
	StatRetries              StatKind = "retries"
	StatErrors               StatKind = "errors"
	StatPersistenceErrors    StatKind = "persistence_errors"
	StatInputTokens          StatKind = "input_tokens"
	StatOutputTokens         StatKind = "output_tokens"
)

// RunStatistics accumulates counters and token estimates for one run.
// It is never read back into a later run.
type RunStatistics struct {
	RunID      string    `json:"run_id"`
	Model      string    `json:"model"`
	PromptSet  string    `json:"prompt_set"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`

	DocumentsProcessed   int `json:"documents_processed"`
	DocumentsSkipped     int `json:"documents_skipped"`
	DocumentsFailed      int `json:"documents_failed"`
	IdentifiersFound     int `json:"identifiers_found"`
	PlaceholdersAssigned int `json:"placeholders_assigned"`
	ModelsPersisted      int `json:"models_persisted"`
	FaultCodesPersisted  int `json:"fault_codes_persisted"`
	ProceduresPersisted  int `json:"procedures_persisted"`
	SectionsPersisted    int `json:"sections_persisted"`
	APICalls             int `json:"api_calls"`
	Retries              int `json:"retries"`
	Errors               int `json:"errors"`
	PersistenceErrors    int `json:"persistence_errors"`

	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Add applies delta to the counter named by kind. Unknown kinds are ignored.
func (s *RunStatistics) Add(kind StatKind, delta int64) {
	n := int(delta)
	switch kind {
	case StatDocumentsProcessed:
		s.DocumentsProcessed += n
	case StatDocumentsSkipped:
		s.DocumentsSkipped += n
	case StatDocumentsFailed:
		s.DocumentsFailed += n
	case StatIdentifiersFound:
		s.IdentifiersFound += n
	case StatPlaceholdersAssigned:
		s.PlaceholdersAssigned += n
	case StatModelsPersisted:
		s.ModelsPersisted += n
	case StatFaultCodesPersisted:
		s.FaultCodesPersisted += n
	case StatProceduresPersisted:
		s.ProceduresPersisted += n
	case StatSectionsPersisted:
		s.SectionsPersisted += n
	case StatAPICalls:
		s.APICalls += n
	case StatRetries:
		s.Retries += n
	case StatErrors:
		s.Errors += n
	case StatPersistenceErrors:
		s.PersistenceErrors += n
	case StatInputTokens:
		s.InputTokens += delta
	case StatOutputTokens:
		s.OutputTokens += delta
	}
}

// DocumentState is the per-document processing state.
type DocumentState string

// Document states. Skipped, persisted and metadata-failed documents are terminal.
const (
	DocumentPending        DocumentState = "pending"
	DocumentSkippedSize    DocumentState = "skipped_size"
	DocumentSkippedText    DocumentState = "skipped_text"
	DocumentMetadataFailed DocumentState = "metadata_failed"
	DocumentExtracted      DocumentState = "extracted"
	DocumentPersisted      DocumentState = "persisted"
	DocumentFailed         DocumentState = "failed"
)

// IsSkip returns true for gating skips.
func (s DocumentState) IsSkip() bool {
	return s == DocumentSkippedSize || s == DocumentSkippedText
}

// MarksProcessed returns true if a document in this state joins the processed set.
func (s DocumentState) MarksProcessed() bool {
	return s == DocumentSkippedSize || s == DocumentSkippedText || s == DocumentPersisted
}

// String returns the string representation.
func (s DocumentState) String() string {
	return string(s)
}

// RunOutcome is the run-level state.
type RunOutcome string

// Run outcomes.
const (
	RunRunning            RunOutcome = "running"
	RunCompleted          RunOutcome = "completed"
	RunStoppedByQuota     RunOutcome = "stopped_by_quota"
	RunStoppedByLimit     RunOutcome = "stopped_by_limit"
	RunStoppedByInterrupt RunOutcome = "stopped_by_interrupt"
)

// IsClean returns true if the run ended without an abnormal stop.
func (o RunOutcome) IsClean() bool {
	return o == RunCompleted || o == RunStoppedByLimit
}

// String returns the string representation.
func (o RunOutcome) String() string {
	return string(o)
}

// PromptOutcome records whether one extraction prompt produced data.
type PromptOutcome struct {
	Kind      PromptKind
	Succeeded bool
	Items     int
}

// DocumentResult is the outcome of processing one document.
type DocumentResult struct {
	Name        string
	State       DocumentState
	Bytes       int
	Chars       int
	Identifiers []string
	Placeholder bool
	Prompts     []PromptOutcome
	FaultCodes  int
	Procedures  int
	Sections    int
	Err         error
}

// RunResult summarises a whole run.
type RunResult struct {
	RunID   string
	Outcome RunOutcome
	Stats   RunStatistics
	Cost    CostEstimate
	// Candidates counts the unprocessed documents the index returned.
	Candidates int
	Documents  []DocumentResult
}

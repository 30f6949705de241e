package domain

import (
	"sort"
	"strings"
)

// PromptKind identifies one of the extraction prompts run per document.
type PromptKind string

// Supported prompt kinds, in the order they run.
const (
	PromptMetadata   PromptKind = "metadata"
	PromptFaultCodes PromptKind = "fault_codes"
	PromptProcedures PromptKind = "procedures"
)

// PromptKinds lists every prompt kind in execution order.
var PromptKinds = []PromptKind{PromptMetadata, PromptFaultCodes, PromptProcedures}

// IsValid returns true if the prompt kind is recognised.
func (k PromptKind) IsValid() bool {
	switch k {
	case PromptMetadata, PromptFaultCodes, PromptProcedures:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k PromptKind) String() string {
	return string(k)
}

// ContentsEntry is one line of a manual's table of contents.
type ContentsEntry struct {
	Title string `json:"title"`
	Page  int    `json:"page"`
	Level int    `json:"level"`
}

// ExtractedMetadata is the result of the metadata prompt after identifier validation.
type ExtractedMetadata struct {
	Manufacturer   string          `json:"manufacturer"`
	ModelName      string          `json:"model_name"`
	ModelVariants  []string        `json:"model_variants"`
	EquipmentClass string          `json:"equipment_class"`
	FuelType       string          `json:"fuel_type"`
	RatedOutput    string          `json:"rated_output"`
	Contents       []ContentsEntry `json:"table_of_contents"`
	RawIdentifiers []string        `json:"gc_numbers"`

	// Identifiers is filled by normalising RawIdentifiers.
	Identifiers []Identifier `json:"-"`
}

// ValidIdentifiers returns the distinct canonical identifiers in extraction order.
func (m *ExtractedMetadata) ValidIdentifiers() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, id := range m.Identifiers {
		if !id.Valid || seen[id.Canonical] {
			continue
		}
		seen[id.Canonical] = true
		out = append(out, id.Canonical)
	}
	return out
}

// FaultCode is one fault code as returned by the fault-code prompt.
type FaultCode struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	CauseCodes  []string `json:"cause_codes"`
	Causes      []string `json:"possible_causes"`
	Solutions   []string `json:"solutions"`
	Severity    string   `json:"severity"`
}

// CauseKey is the cause-code part of the fault code's natural key:
// trimmed, upper-cased, de-duplicated, sorted and comma-joined.
func (f FaultCode) CauseKey() string {
	seen := make(map[string]bool)
	var codes []string
	for _, c := range f.CauseCodes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return strings.Join(codes, ",")
}

// NaturalKey identifies a fault code within one identifier.
func (f FaultCode) NaturalKey() string {
	return strings.ToUpper(strings.TrimSpace(f.Code)) + "|" + f.CauseKey()
}

// Procedure is one service procedure as returned by the procedures prompt.
type Procedure struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Steps        []string `json:"steps"`
	Tools        []string `json:"tools"`
	SafetyNotes  []string `json:"safety_notes"`
	TestValues   []string `json:"test_values"`
	PageRefStart int      `json:"page"`
}

// NaturalKey identifies a procedure within one identifier: its name,
// lower-cased with whitespace collapsed.
func (p Procedure) NaturalKey() string {
	return strings.ToLower(strings.Join(strings.Fields(p.Name), " "))
}

// RecordKey carries the columns every persisted record is keyed by.
type RecordKey struct {
	GCNumber     string
	Manufacturer string
	ModelName    string
}

// EquipmentModel is a row of the primary equipment-model index.
// Only valid GC numbers are ever stored here.
type EquipmentModel struct {
	RecordKey
	Variants       []string
	EquipmentClass string
	FuelType       string
	RatedOutput    string
	SourceDocument string
}

// FaultCodeRecord is a fault code attached to one identifier.
type FaultCodeRecord struct {
	RecordKey
	FaultCode
	SourceDocument string
}

// ProcedureRecord is a service procedure attached to one identifier.
type ProcedureRecord struct {
	RecordKey
	Procedure
	SourceDocument string
}

// SectionRecord is the sliced text of one table-of-contents entry.
type SectionRecord struct {
	RecordKey
	Title          string
	Order          int
	Level          int
	StartPage      int
	EndPage        int
	Content        string
	SourceDocument string
}

// ManualRecord summarises one processed manual.
type ManualRecord struct {
	Name         string
	Origin       string
	Manufacturer string
	ModelName    string
	GCNumbers    []string
	Placeholder  bool
	PageCount    int
	CharCount    int
}

// PersistResult counts what BuildAndPersist wrote for one document.
type PersistResult struct {
	Identifiers       []string
	PlaceholderUsed   bool
	Models            int
	FaultCodes        int
	Procedures        int
	Sections          int
	PersistenceErrors int
}

// Package xlsx writes exported records to an Excel workbook.
package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

var _ driven.WorkbookWriter = (*Writer)(nil)

// Sheet names in the order they appear.
const (
	SheetModels     = "Models"
	SheetFaultCodes = "Fault Codes"
	SheetProcedures = "Procedures"
	SheetManuals    = "Manuals"
	SheetSummary    = "Run Summary"
)

// maxCellChars is Excel's per-cell text limit.
const maxCellChars = 32767

// Writer writes one sheet per record kind plus a run summary sheet.
type Writer struct{}

// NewWriter returns a workbook writer.
func NewWriter() *Writer {
	return &Writer{}
}

type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// WriteWorkbook writes data to path, replacing any existing file.
func (w *Writer) WriteWorkbook(path string, data driven.ExportData) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sheets := []sheet{
		modelSheet(data.Models),
		faultCodeSheet(data.FaultCodes),
		procedureSheet(data.Procedures),
		manualSheet(data.Manuals),
		summarySheet(data.Summary),
	}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, header); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if err := f.SetSheetRow(s.name, "A1", &s.headers); err != nil {
		return fmt.Errorf("write %s header: %w", s.name, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(s.headers), 1)
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", s.name, err)
	}

	for i, row := range s.rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", s.name, i+2, err)
		}
	}

	for i, width := range s.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(s.name, col, col, width)
	}
	if len(s.rows) > 0 {
		_ = f.SetPanes(s.name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}
	return nil
}

func modelSheet(models []domain.EquipmentModel) sheet {
	s := sheet{
		name:    SheetModels,
		headers: []string{"GC Number", "Manufacturer", "Model", "Variants", "Class", "Fuel", "Output", "Source"},
		widths:  []float64{12, 18, 28, 28, 14, 14, 14, 40},
	}
	for _, m := range models {
		s.rows = append(s.rows, []any{
			m.GCNumber, m.Manufacturer, m.ModelName, join(m.Variants),
			m.EquipmentClass, m.FuelType, m.RatedOutput, m.SourceDocument,
		})
	}
	return s
}

func faultCodeSheet(codes []domain.FaultCodeRecord) sheet {
	s := sheet{
		name:    SheetFaultCodes,
		headers: []string{"GC Number", "Manufacturer", "Model", "Code", "Description", "Cause Codes", "Possible Causes", "Solutions", "Severity", "Source"},
		widths:  []float64{12, 18, 24, 10, 40, 14, 48, 48, 12, 40},
	}
	for _, r := range codes {
		s.rows = append(s.rows, []any{
			r.GCNumber, r.Manufacturer, r.ModelName, r.Code, cell(r.Description),
			join(r.CauseCodes), cell(join(r.Causes)), cell(join(r.Solutions)), r.Severity, r.SourceDocument,
		})
	}
	return s
}

func procedureSheet(procs []domain.ProcedureRecord) sheet {
	s := sheet{
		name:    SheetProcedures,
		headers: []string{"GC Number", "Manufacturer", "Model", "Procedure", "Category", "Steps", "Tools", "Safety Notes", "Test Values", "Page", "Source"},
		widths:  []float64{12, 18, 24, 32, 14, 60, 24, 40, 24, 8, 40},
	}
	for _, r := range procs {
		s.rows = append(s.rows, []any{
			r.GCNumber, r.Manufacturer, r.ModelName, r.Name, r.Category, cell(numbered(r.Steps)),
			join(r.Tools), cell(join(r.SafetyNotes)), join(r.TestValues), r.PageRefStart, r.SourceDocument,
		})
	}
	return s
}

func manualSheet(manuals []domain.ManualRecord) sheet {
	s := sheet{
		name:    SheetManuals,
		headers: []string{"Manual", "Origin", "Manufacturer", "Model", "GC Numbers", "Placeholder", "Pages", "Characters"},
		widths:  []float64{40, 60, 18, 28, 28, 12, 8, 12},
	}
	for _, m := range manuals {
		s.rows = append(s.rows, []any{
			m.Name, m.Origin, m.Manufacturer, m.ModelName, join(m.GCNumbers), m.Placeholder, m.PageCount, m.CharCount,
		})
	}
	return s
}

func summarySheet(snap *driven.ProgressSnapshot) sheet {
	s := sheet{
		name:    SheetSummary,
		headers: []string{"Field", "Value"},
		widths:  []float64{28, 40},
	}
	if snap == nil {
		s.rows = [][]any{{"Status", "no run recorded"}}
		return s
	}
	st := snap.Stats
	add := func(k string, v any) { s.rows = append(s.rows, []any{k, v}) }
	add("Run ID", st.RunID)
	add("Outcome", snap.Outcome.String())
	add("Model", st.Model)
	add("Prompt Set", st.PromptSet)
	if !st.StartedAt.IsZero() {
		add("Started", st.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if !st.FinishedAt.IsZero() {
		add("Finished", st.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	add("Processed (all runs)", len(snap.Processed))
	add("Documents Processed", st.DocumentsProcessed)
	add("Documents Skipped", st.DocumentsSkipped)
	add("Documents Failed", st.DocumentsFailed)
	add("Identifiers Found", st.IdentifiersFound)
	add("Placeholders", st.PlaceholdersAssigned)
	add("Models", st.ModelsPersisted)
	add("Fault Codes", st.FaultCodesPersisted)
	add("Procedures", st.ProceduresPersisted)
	add("Sections", st.SectionsPersisted)
	add("API Calls", st.APICalls)
	add("Retries", st.Retries)
	add("Errors", st.Errors)
	add("Persistence Errors", st.PersistenceErrors)
	add("Input Tokens (est.)", st.InputTokens)
	add("Output Tokens (est.)", st.OutputTokens)
	if snap.Cost.PricingKnown {
		add("Session Cost (USD)", snap.Cost.SessionCost)
		add("Per Document (USD)", snap.Cost.PerDocument)
		add("Remaining Documents", snap.Cost.RemainingDocuments)
		add("Projected Remaining (USD)", snap.Cost.ProjectedRemainingCost)
	} else {
		add("Cost", "no pricing for model")
	}
	return s
}

func join(v []string) string {
	return strings.Join(v, "; ")
}

func numbered(steps []string) string {
	lines := make([]string, len(steps))
	for i, step := range steps {
		lines[i] = strconv.Itoa(i+1) + ". " + step
	}
	return strings.Join(lines, "\n")
}

// cell truncates text to fit in one cell.
func cell(s string) string {
	r := []rune(s)
	if len(r) <= maxCellChars {
		return s
	}
	return string(r[:maxCellChars-1]) + "…"
}

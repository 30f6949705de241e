package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// RenderSummary formats the operator-facing run summary. It is always
// produced, including after a quota stop or interrupt.
func RenderSummary(snap driven.ProgressSnapshot) string {
	s := snap.Stats
	c := snap.Cost
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s\n", s.RunID)
	fmt.Fprintf(&b, "Outcome:            %s\n", snap.Outcome)
	fmt.Fprintf(&b, "Model:              %s\n", s.Model)
	fmt.Fprintf(&b, "Prompt set:         %s\n", s.PromptSet)
	if !s.StartedAt.IsZero() {
		end := s.FinishedAt
		if end.IsZero() {
			end = s.UpdatedAt
		}
		fmt.Fprintf(&b, "Started:            %s\n", s.StartedAt.Format(time.RFC3339))
		if !end.IsZero() {
			fmt.Fprintf(&b, "Elapsed:            %s\n", end.Sub(s.StartedAt).Round(time.Second))
		}
	}

	b.WriteString("\nDocuments\n")
	fmt.Fprintf(&b, "  processed:        %d\n", s.DocumentsProcessed)
	fmt.Fprintf(&b, "  skipped:          %d\n", s.DocumentsSkipped)
	fmt.Fprintf(&b, "  failed:           %d\n", s.DocumentsFailed)
	fmt.Fprintf(&b, "  processed total:  %d\n", len(snap.Processed))

	b.WriteString("\nRecords\n")
	fmt.Fprintf(&b, "  gc numbers:       %d\n", s.IdentifiersFound)
	fmt.Fprintf(&b, "  placeholders:     %d\n", s.PlaceholdersAssigned)
	fmt.Fprintf(&b, "  models:           %d\n", s.ModelsPersisted)
	fmt.Fprintf(&b, "  fault codes:      %d\n", s.FaultCodesPersisted)
	fmt.Fprintf(&b, "  procedures:       %d\n", s.ProceduresPersisted)
	fmt.Fprintf(&b, "  sections:         %d\n", s.SectionsPersisted)

	b.WriteString("\nUsage\n")
	fmt.Fprintf(&b, "  api calls:        %d\n", s.APICalls)
	fmt.Fprintf(&b, "  retries:          %d\n", s.Retries)
	fmt.Fprintf(&b, "  errors:           %d\n", s.Errors)
	fmt.Fprintf(&b, "  persist errors:   %d\n", s.PersistenceErrors)
	fmt.Fprintf(&b, "  input tokens:     ~%d\n", s.InputTokens)
	fmt.Fprintf(&b, "  output tokens:    ~%d\n", s.OutputTokens)

	b.WriteString("\nCost (estimate)\n")
	if !c.PricingKnown {
		fmt.Fprintf(&b, "  no pricing for model %q\n", c.Model)
		return b.String()
	}
	fmt.Fprintf(&b, "  session:          $%.4f\n", c.SessionCost)
	fmt.Fprintf(&b, "  per document:     $%.4f\n", c.PerDocument)
	fmt.Fprintf(&b, "  remaining docs:   %d\n", c.RemainingDocuments)
	fmt.Fprintf(&b, "  projected:        $%.2f\n", c.ProjectedRemainingCost)
	return b.String()
}

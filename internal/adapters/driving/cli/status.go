package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driving"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show progress and the last run's statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context(), Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	reporter, err := rt.Status()
	if err != nil {
		return err
	}
	status, err := reporter.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printStatus(cmd, status)
	return nil
}

func printStatus(cmd *cobra.Command, status *driving.RunStatus) {
	st := newStyles(cmd.OutOrStdout())
	var b strings.Builder
	row := func(label string, value any) {
		fmt.Fprintf(&b, "%s%s\n", st.Label.Render(label), st.Value.Render(fmt.Sprint(value)))
	}

	b.WriteString(st.Title.Render("Progress") + "\n")
	row("Manuals processed", status.ProcessedCount)

	if status.Stats == nil {
		b.WriteString("\nNo run has been recorded yet.")
		cmd.Println(st.Box.Render(b.String()))
		return
	}

	s := status.Stats
	b.WriteString("\n" + st.Title.Render("Last run") + "\n")
	row("Run ID", s.RunID)
	row("Outcome", status.Outcome)
	row("Model", s.Model)
	row("Prompt set", s.PromptSet)
	if !s.UpdatedAt.IsZero() {
		row("Last update", s.UpdatedAt.Local().Format(time.DateTime))
	}
	row("Documents", fmt.Sprintf("%d processed, %d skipped, %d failed", s.DocumentsProcessed, s.DocumentsSkipped, s.DocumentsFailed))
	row("Records", fmt.Sprintf("%d models, %d fault codes, %d procedures, %d sections",
		s.ModelsPersisted, s.FaultCodesPersisted, s.ProceduresPersisted, s.SectionsPersisted))
	row("API calls", fmt.Sprintf("%d (%d retries, %d errors)", s.APICalls, s.Retries, s.Errors))

	if c := status.Cost; c != nil && c.PricingKnown {
		row("Session cost", fmt.Sprintf("$%.4f", c.SessionCost))
		row("Projected remaining", fmt.Sprintf("$%.2f for %d documents", c.ProjectedRemainingCost, c.RemainingDocuments))
	}

	cmd.Println(st.Box.Render(strings.TrimRight(b.String(), "\n")))
}

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

var (
	runLimit     int
	runDryRun    bool
	runPromptSet string
	runStore     string
	runIndex     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process pending manuals",
	Long: `Processes manuals from the document index that are not yet in the
processed set. Each manual is fetched, converted to per-page text and sent
through the metadata, fault code and procedure prompts; results are written
to the record store.

The run stops when every candidate is done, when --limit manuals have been
processed, when the model quota is exhausted, or on Ctrl-C. Progress is
saved in every case and the next run resumes where this one stopped.

Exit codes: 0 completed or limit reached, 3 quota exhausted, 130 interrupted,
1 error.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().IntVarP(&runLimit, "limit", "n", 0, "stop after this many manuals (0 = no limit)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "keep records in memory and write no progress files")
	runCmd.Flags().StringVar(&runPromptSet, "prompt-set", "", "prompt set: boilers or appliances")
	runCmd.Flags().StringVar(&runStore, "store", "", "record store: postgres, sqlite or memory")
	runCmd.Flags().StringVar(&runIndex, "index", "", "document index: postgres, sqlite or manifest")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, Options{
		PromptSet: runPromptSet,
		Store:     runStore,
		Index:     runIndex,
		Limit:     runLimit,
		DryRun:    runDryRun,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	pipeline, err := rt.Pipeline(ctx)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printRunResult(cmd, result)

	if code := outcomeExitCode(result.Outcome); code != ExitOK {
		return &exitError{code: code}
	}
	return nil
}

// outcomeExitCode maps a run outcome to the process exit code.
func outcomeExitCode(o domain.RunOutcome) int {
	switch o {
	case domain.RunStoppedByQuota:
		return ExitQuota
	case domain.RunStoppedByInterrupt:
		return ExitInterrupt
	case domain.RunCompleted, domain.RunStoppedByLimit:
		return ExitOK
	default:
		return ExitError
	}
}

func printRunResult(cmd *cobra.Command, res *domain.RunResult) {
	st := newStyles(cmd.OutOrStdout())

	var headline string
	switch res.Outcome {
	case domain.RunCompleted:
		headline = st.Success.Render("Completed")
	case domain.RunStoppedByLimit:
		headline = st.Success.Render("Stopped at document limit")
	case domain.RunStoppedByQuota:
		headline = st.Warning.Render("Stopped: quota exhausted")
	case domain.RunStoppedByInterrupt:
		headline = st.Warning.Render("Interrupted")
	default:
		headline = st.Error.Render(res.Outcome.String())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", st.Title.Render("Run "+res.RunID), headline)
	if len(res.Documents) > 0 {
		b.WriteString("\n")
	}
	for _, d := range res.Documents {
		b.WriteString(documentLine(st, d))
		b.WriteString("\n")
	}

	s := res.Stats
	b.WriteString("\n")
	row := func(label string, value any) {
		fmt.Fprintf(&b, "%s%s\n", st.Label.Render(label), st.Value.Render(fmt.Sprint(value)))
	}
	row("Candidates", res.Candidates)
	row("Documents processed", s.DocumentsProcessed)
	row("Skipped / failed", fmt.Sprintf("%d / %d", s.DocumentsSkipped, s.DocumentsFailed))
	row("GC numbers", s.IdentifiersFound)
	row("Fault codes", s.FaultCodesPersisted)
	row("Procedures", s.ProceduresPersisted)
	row("Sections", s.SectionsPersisted)
	row("API calls (retries)", fmt.Sprintf("%d (%d)", s.APICalls, s.Retries))
	if res.Cost.PricingKnown {
		row("Session cost", fmt.Sprintf("$%.4f", res.Cost.SessionCost))
		row("Projected remaining", fmt.Sprintf("$%.2f for %d documents", res.Cost.ProjectedRemainingCost, res.Cost.RemainingDocuments))
	} else {
		row("Cost", "no pricing for "+res.Cost.Model)
	}

	cmd.Println(st.Box.Render(strings.TrimRight(b.String(), "\n")))
}

func documentLine(st styles, d domain.DocumentResult) string {
	var mark string
	switch {
	case d.State == domain.DocumentPersisted:
		mark = st.Success.Render("✓")
	case d.State.IsSkip():
		mark = st.Warning.Render("-")
	default:
		mark = st.Error.Render("✗")
	}

	detail := d.State.String()
	if d.State == domain.DocumentPersisted {
		ids := strings.Join(d.Identifiers, ", ")
		if d.Placeholder {
			ids += " (placeholder)"
		}
		detail = fmt.Sprintf("%s  faults %d  procedures %d  sections %d", ids, d.FaultCodes, d.Procedures, d.Sections)
	} else if d.Err != nil {
		detail += ": " + d.Err.Error()
	}
	return fmt.Sprintf("%s %s  %s", mark, d.Name, detail)
}

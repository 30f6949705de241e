package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

var normaliseCmd = &cobra.Command{
	Use:     "normalise <gc-number>...",
	Aliases: []string{"normalize"},
	Short:   "Check and canonicalise GC numbers",
	Long: `Prints the canonical NN-NNN-NN form of each argument, or "invalid".
Accepts the forms found in manuals, for example "47 075 06", "GC No. 4707506"
or "47-075-06". Exits 1 if any argument is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNormalise,
}

func init() {
	rootCmd.AddCommand(normaliseCmd)
}

func runNormalise(cmd *cobra.Command, args []string) error {
	st := newStyles(cmd.OutOrStdout())
	invalid := 0
	for _, raw := range args {
		canonical, ok := domain.NormaliseGCNumber(raw)
		if !ok {
			invalid++
			cmd.Printf("%-24q %s\n", raw, st.Error.Render("invalid"))
			continue
		}
		cmd.Printf("%-24q %s\n", raw, st.Success.Render(canonical))
	}
	if invalid > 0 {
		return &exitError{code: ExitError, err: fmt.Errorf("%d of %d GC numbers invalid", invalid, len(args))}
	}
	return nil
}

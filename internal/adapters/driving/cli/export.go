package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file.xlsx]",
	Short: "Export stored records to an Excel workbook",
	Long: `Writes models, fault codes, procedures, manuals and the last run summary
to an .xlsx workbook, one sheet each. Uses the configured record store and
prompt set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var exportPromptSet string

func init() {
	exportCmd.Flags().StringVar(&exportPromptSet, "prompt-set", "", "prompt set whose tables to export")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	path := "boilerbrain-export.xlsx"
	if len(args) == 1 {
		path = args[0]
	}

	rt, err := openRuntime(cmd.Context(), Options{PromptSet: exportPromptSet})
	if err != nil {
		return err
	}
	defer rt.Close()

	exporter, err := rt.Exporter(cmd.Context())
	if err != nil {
		return err
	}
	data, err := exporter.Export(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	cmd.Printf("Wrote %s: %d models, %d fault codes, %d procedures, %d manuals\n",
		path, len(data.Models), len(data.FaultCodes), len(data.Procedures), len(data.Manuals))
	return nil
}

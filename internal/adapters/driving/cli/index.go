package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the document index",
}

var indexImportCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Load a YAML manifest into the database index",
	Long: `Copies the manuals listed in a YAML manifest into the manual_index table
of the configured sqlite or postgres index. Entries with the same name are
updated.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexImport,
}

var indexImportTarget string

func init() {
	indexImportCmd.Flags().StringVar(&indexImportTarget, "index", "", "target index: postgres or sqlite")
	indexCmd.AddCommand(indexImportCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexImport(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), Options{Index: indexImportTarget})
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.ImportManifest(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Imported %d manuals into the %s index\n", n, rt.Settings().Store.Index)
	return nil
}

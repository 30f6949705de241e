package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Write the extraction prompts to disk for editing",
	Long: `Creates the prompt directory with one file per prompt set and kind.
Existing files are left as they are. Edited prompts are used on the next run.`,
	Args: cobra.NoArgs,
	RunE: runPrompts,
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <set>/<kind>",
	Short: "Print one prompt template",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptsShow,
}

func init() {
	promptsCmd.AddCommand(promptsShowCmd)
	rootCmd.AddCommand(promptsCmd)
}

func runPrompts(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context(), Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	prompts := rt.Prompts()
	if err := prompts.WriteDefaults(); err != nil {
		return fmt.Errorf("failed to write prompts: %w", err)
	}

	cmd.Printf("Prompts in %s\n", prompts.Dir())
	for _, set := range []string{domain.PromptSetBoilers, domain.PromptSetAppliances} {
		for _, kind := range domain.PromptKinds {
			cmd.Printf("  %s/%s.txt\n", set, kind)
		}
	}
	cmd.Printf("Active prompt set: %s\n", rt.Settings().Pipeline.PromptSet)
	return nil
}

func runPromptsShow(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	text, err := rt.Prompts().Load(args[0])
	if err != nil {
		return err
	}
	cmd.Println(text)
	return nil
}

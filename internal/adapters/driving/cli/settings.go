package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the settings stored in config.toml.

API keys and the postgres connection string are read from the environment
and are never written to the config file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Long: `Store a setting in config.toml.

Examples:
  settings set llm.provider anthropic
  settings set pipeline.call_delay 2s
  settings set pipeline.manufacturer_priority "Worcester,Vaillant"
  settings set pricing.gemini-1.5-flash.input_per_mtok 0.075`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and contact the model provider",
	Long: `Validate settings and send one request to the model provider.

For Gemini the check is a one-token generation and is billed. Exits 3 when
the provider reports an exhausted quota.`,
	Args: cobra.NoArgs,
	RunE: runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context(), Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	settings := rt.Settings()
	st := newStyles(cmd.OutOrStdout())
	var b strings.Builder
	row := func(label string, value any) {
		fmt.Fprintf(&b, "  %s%s\n", st.Label.Render(label), st.Value.Render(fmt.Sprint(value)))
	}
	section := func(title string) {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(st.Title.Render(title) + "\n")
	}

	section("LLM")
	row("Provider", settings.LLM.Provider.Description())
	row("Model", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		row("Base URL", settings.LLM.BaseURL)
	}
	if settings.LLM.APIKey != "" {
		row("API key", maskAPIKey(settings.LLM.APIKey))
	} else {
		row("API key", fmt.Sprintf("(not set, export %s)", settings.LLM.Provider.APIKeyEnv()))
	}
	row("Requests per minute", settings.LLM.RequestsPerMinute)
	row("Timeout", settings.LLM.Timeout)

	section("Storage")
	row("Record store", settings.Store.Type)
	row("Document index", settings.Store.Index)
	if settings.Store.Type == domain.StoreSQLite || settings.Store.Index == domain.IndexSQLite {
		row("SQLite path", settings.Store.SQLitePath)
	}
	if settings.Store.Index == domain.IndexManifest {
		row("Manifest", settings.Store.ManifestPath)
	}
	if settings.Store.DatabaseURL != "" {
		row("Database URL", "(set)")
	}
	row("State directory", settings.State.Dir)

	p := settings.Pipeline
	section("Pipeline")
	row("Prompt set", p.PromptSet)
	row("Size gate", fmt.Sprintf("%d to %d bytes", p.MinBytes, p.MaxBytes))
	row("Min text chars", p.MinTextChars)
	row("Retry", fmt.Sprintf("%d attempts, base delay %s", p.MaxAttempts, p.BaseDelay))
	row("Pacing", fmt.Sprintf("%s per call, %s per document", p.CallDelay, p.DocumentDelay))
	row("Index filter", p.IndexFilter)
	if len(p.ManufacturerPriority) > 0 {
		row("Manufacturer priority", strings.Join(p.ManufacturerPriority, ", "))
	}
	if p.DocumentLimit > 0 {
		row("Document limit", p.DocumentLimit)
	}

	if price, ok := settings.Pricing.Lookup(settings.LLM.Model); ok {
		section("Pricing")
		row("Input per 1M tokens", fmt.Sprintf("$%.4f", price.InputPerMTok))
		row("Output per 1M tokens", fmt.Sprintf("$%.4f", price.OutputPerMTok))
	}

	cmd.Println(st.Box.Render(strings.TrimRight(b.String(), "\n")))

	if err := settings.Validate(); err != nil {
		cmd.Println(st.Warning.Render(fmt.Sprintf("Warning: %v", err)))
	} else {
		cmd.Println(st.Success.Render("Configuration is valid."))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	value, err := services.ParseSetting(key, raw)
	if err != nil {
		return err
	}

	rt, err := openRuntime(cmd.Context(), Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Config().Set(key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	cmd.Printf("Set %s = %v\n", key, value)
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context(), Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	settings := rt.Settings()
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := rt.CheckLLM(cmd.Context()); err != nil {
		if domain.IsQuotaExhausted(err) {
			return &exitError{code: ExitQuota, err: err}
		}
		return err
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Success.Render(fmt.Sprintf("%s (%s) is reachable.", settings.LLM.Provider.Description(), settings.LLM.Model)))
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

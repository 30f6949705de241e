// Package cli provides the boilerbrain-ingest command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitQuota     = 3
	ExitInterrupt = 130
)

var version = "dev"

var (
	configDir string
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "boilerbrain-ingest",
	Short: "Extract structured service data from boiler manuals",
	Long: `boilerbrain-ingest reads installation and servicing manuals, asks an
extraction model for GC numbers, fault codes, procedures and contents, and
stores the results idempotently. Runs stop cleanly on quota exhaustion and
resume where they left off.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		switch logger.Format(logFormat) {
		case logger.FormatConsole, logger.FormatJSON:
		default:
			return fmt.Errorf("unknown log format %q (use console or json)", logFormat)
		}
		logger.SetFormat(logger.Format(logFormat))
		logger.SetVerbose(verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.boilerbrain)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logger.FormatConsole), "log format: console or json")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return execute(context.Background(), os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			rootCmd.PrintErrln("Error:", ee.err)
		}
		return ee.code
	}
	rootCmd.PrintErrln("Error:", err)
	if domain.IsQuotaExhausted(err) {
		return ExitQuota
	}
	return ExitError
}

// openRuntime bootstraps the runtime with the global flags applied.
func openRuntime(ctx context.Context, opts Options) (Runtime, error) {
	if bootstrap == nil {
		return nil, errors.New("runtime not configured")
	}
	opts.ConfigDir = configDir
	return bootstrap(ctx, opts)
}

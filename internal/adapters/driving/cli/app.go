package cli

import (
	"context"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driving"
)

// Options are the command-line overrides applied over the config file.
// Zero values leave the configured setting alone.
type Options struct {
	ConfigDir string
	PromptSet string
	Store     string
	Index     string
	Limit     int
	DryRun    bool
}

// Runtime builds the services a command needs. Services are created on
// demand, so commands that never call the model do not need an API key.
type Runtime interface {
	// Settings returns the effective settings with overrides applied.
	Settings() *domain.Settings

	// Config returns the underlying config store.
	Config() driven.ConfigStore

	// Pipeline validates the settings and wires a pipeline for one run.
	// It does not contact the model provider.
	Pipeline(ctx context.Context) (driving.Pipeline, error)

	// CheckLLM creates the configured model service and pings it.
	CheckLLM(ctx context.Context) error

	// Status returns the reporter over the progress files.
	Status() (driving.StatusReporter, error)

	// Exporter opens the record store for export.
	Exporter(ctx context.Context) (Exporter, error)

	// Prompts returns the editable prompt store.
	Prompts() PromptFiles

	// ImportManifest copies a YAML manifest into the configured database index.
	ImportManifest(ctx context.Context, path string) (int, error)

	// Close releases every resource opened so far.
	Close() error
}

// Exporter writes persisted records to a workbook.
type Exporter interface {
	Export(ctx context.Context, path string) (*driven.ExportData, error)
}

// PromptFiles is the prompt store as seen by the prompts command.
type PromptFiles interface {
	driven.PromptStore
	Dir() string
	WriteDefaults() error
}

// Bootstrapper creates the runtime for one command invocation.
type Bootstrapper func(ctx context.Context, opts Options) (Runtime, error)

var bootstrap Bootstrapper

// SetBootstrapper registers the composition root. Called once from main.
func SetBootstrapper(b Bootstrapper) {
	bootstrap = b
}

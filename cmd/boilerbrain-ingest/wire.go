package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/ai"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/export/xlsx"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/retriever/fetch"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/retriever/pdftext"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/storage/manifest"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driving/cli"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/services"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// Ensure app implements the runtime the CLI expects.
var _ cli.Runtime = (*app)(nil)

// recordBackend is a record store that can also be read back for export.
type recordBackend interface {
	driven.RecordStore
	driven.RecordLister
}

// app is the composition root. Backends are opened on first use and
// closed together.
type app struct {
	baseDir  string
	config   *file.ConfigStore
	settings *domain.Settings
	prompts  *file.PromptStore

	sqliteStore   *sqlite.Store
	postgresStore *postgres.Store
	closers       []io.Closer
}

func bootstrap(_ context.Context, opts cli.Options) (cli.Runtime, error) {
	return newApp(opts, os.Getenv)
}

func newApp(opts cli.Options, getenv func(string) string) (*app, error) {
	baseDir := opts.ConfigDir
	if baseDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}

	config, err := file.NewConfigStore(baseDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settings, err := services.NewSettingsLoader(config, getenv, baseDir).Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := applyOptions(settings, opts); err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(baseDir, "prompts"))
	if err != nil {
		return nil, err
	}

	return &app{
		baseDir:  baseDir,
		config:   config,
		settings: settings,
		prompts:  prompts,
	}, nil
}

// applyOptions lays command-line overrides over the loaded settings.
func applyOptions(s *domain.Settings, opts cli.Options) error {
	if opts.PromptSet != "" {
		s.Pipeline.PromptSet = opts.PromptSet
	}
	if opts.Store != "" {
		s.Store.Type = domain.StoreType(opts.Store)
		if !s.Store.Type.IsValid() {
			return fmt.Errorf("%w: store %q", domain.ErrUnsupportedType, opts.Store)
		}
	}
	if opts.Index != "" {
		s.Store.Index = domain.IndexType(opts.Index)
		if !s.Store.Index.IsValid() {
			return fmt.Errorf("%w: index %q", domain.ErrUnsupportedType, opts.Index)
		}
	}
	if opts.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	if opts.Limit > 0 {
		s.Pipeline.DocumentLimit = opts.Limit
	}
	if opts.DryRun {
		s.DryRun = true
		s.Store.Type = domain.StoreMemory
		s.State.Disabled = true
	}
	return nil
}

func (a *app) Settings() *domain.Settings { return a.settings }

func (a *app) Config() driven.ConfigStore { return a.config }

func (a *app) Prompts() cli.PromptFiles { return a.prompts }

// CheckLLM pings the configured provider and releases the service.
func (a *app) CheckLLM(ctx context.Context) error {
	llm, err := ai.CreateAndValidateLLMService(ctx, &a.settings.LLM)
	if err != nil {
		return err
	}
	return llm.Close()
}

// Pipeline validates the settings and wires one run.
func (a *app) Pipeline(ctx context.Context) (driving.Pipeline, error) {
	if err := a.settings.Validate(); err != nil {
		return nil, err
	}

	promptSet, err := services.LoadPromptSet(a.prompts, a.settings.Pipeline.PromptSet)
	if err != nil {
		return nil, err
	}

	store, err := a.recordStore(ctx)
	if err != nil {
		return nil, err
	}
	index, err := a.documentIndex(ctx)
	if err != nil {
		return nil, err
	}

	// No ping here: throttling and quota show up on the first extraction,
	// where they are counted, flushed and mapped to the run outcome.
	llm, err := ai.NewLLMService(ctx, &a.settings.LLM)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, llm)

	var progress driven.ProgressStore
	if !a.settings.State.Disabled {
		ps, err := file.NewProgressStore(a.settings.State.Dir)
		if err != nil {
			return nil, err
		}
		progress = ps
	}

	fetcher := fetch.New(fetch.Config{
		BaseDir:  a.baseDir,
		MaxBytes: a.settings.Pipeline.MaxBytes,
	})

	logger.Debug("Wired run: store=%s index=%s model=%s prompts=%s dry_run=%t",
		a.settings.Store.Type, a.settings.Store.Index, llm.ModelName(), promptSet.Name, a.settings.DryRun)

	return services.NewPipelineOrchestrator(&services.RunContext{
		Settings:  *a.settings,
		PromptSet: promptSet,
		Index:     index,
		Fetcher:   fetcher,
		Extractor: pdftext.New(),
		LLM:       llm,
		Store:     store,
		Progress:  progress,
	})
}

func (a *app) Status() (driving.StatusReporter, error) {
	progress, err := file.NewProgressStore(a.settings.State.Dir)
	if err != nil {
		return nil, err
	}
	return services.NewStatusService(progress), nil
}

func (a *app) Exporter(ctx context.Context) (cli.Exporter, error) {
	store, err := a.recordStore(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := file.NewProgressStore(a.settings.State.Dir)
	if err != nil {
		return nil, err
	}
	return services.NewExportService(store, progress, xlsx.NewWriter()), nil
}

// ImportManifest copies the manifest at path into the configured database index.
func (a *app) ImportManifest(ctx context.Context, path string) (int, error) {
	var writer driven.DocumentIndexWriter
	switch a.settings.Store.Index {
	case domain.IndexSQLite:
		s, err := a.openSQLite()
		if err != nil {
			return 0, err
		}
		writer = s.Index()
	case domain.IndexPostgres:
		s, err := a.openPostgres(ctx)
		if err != nil {
			return 0, err
		}
		writer = s.Index()
	default:
		return 0, fmt.Errorf("%w: index import needs a sqlite or postgres index, not %q",
			domain.ErrInvalidInput, a.settings.Store.Index)
	}

	docs, err := manifest.New(path).List(ctx, driven.IndexQuery{})
	if err != nil {
		return 0, err
	}
	return writer.Add(ctx, docs)
}

// Close releases every backend opened so far.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ==================== Backends ====================

func (a *app) tables() (domain.TableMapping, error) {
	tables, ok := domain.BuiltinTableMappings()[a.settings.Pipeline.PromptSet]
	if !ok {
		return domain.TableMapping{}, fmt.Errorf("%w: prompt set %q", domain.ErrNotFound, a.settings.Pipeline.PromptSet)
	}
	return tables, nil
}

func (a *app) recordStore(ctx context.Context) (recordBackend, error) {
	switch a.settings.Store.Type {
	case domain.StoreMemory:
		return memory.NewRecordStore(), nil
	case domain.StoreSQLite:
		return a.openSQLite()
	case domain.StorePostgres:
		return a.openPostgres(ctx)
	default:
		return nil, fmt.Errorf("%w: store %q", domain.ErrUnsupportedType, a.settings.Store.Type)
	}
}

func (a *app) documentIndex(ctx context.Context) (driven.DocumentIndex, error) {
	switch a.settings.Store.Index {
	case domain.IndexManifest:
		return manifest.New(a.settings.Store.ManifestPath), nil
	case domain.IndexSQLite:
		s, err := a.openSQLite()
		if err != nil {
			return nil, err
		}
		return s.Index(), nil
	case domain.IndexPostgres:
		s, err := a.openPostgres(ctx)
		if err != nil {
			return nil, err
		}
		return s.Index(), nil
	default:
		return nil, fmt.Errorf("%w: index %q", domain.ErrUnsupportedType, a.settings.Store.Index)
	}
}

func (a *app) openSQLite() (*sqlite.Store, error) {
	if a.sqliteStore != nil {
		return a.sqliteStore, nil
	}
	tables, err := a.tables()
	if err != nil {
		return nil, err
	}
	s, err := sqlite.NewStore(a.settings.Store.SQLitePath, tables)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	logger.Debug("Opened sqlite store at %s", s.Path())
	a.sqliteStore = s
	a.closers = append(a.closers, s)
	return s, nil
}

func (a *app) openPostgres(ctx context.Context) (*postgres.Store, error) {
	if a.postgresStore != nil {
		return a.postgresStore, nil
	}
	tables, err := a.tables()
	if err != nil {
		return nil, err
	}
	if a.settings.Store.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: postgres requires %s", domain.ErrInvalidInput, services.EnvDatabaseURL)
	}
	s, err := postgres.Open(ctx, postgres.DefaultConfig(a.settings.Store.DatabaseURL), tables)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	a.postgresStore = s
	a.closers = append(a.closers, s)
	return s, nil
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driving"
)

// mockPipeline implements driving.Pipeline for testing.
type mockPipeline struct {
	result *domain.RunResult
	err    error
}

func (m *mockPipeline) Run(_ context.Context) (*domain.RunResult, error) {
	return m.result, m.err
}

// mockStatusReporter implements driving.StatusReporter for testing.
type mockStatusReporter struct {
	status *driving.RunStatus
	err    error
}

func (m *mockStatusReporter) Status(_ context.Context) (*driving.RunStatus, error) {
	return m.status, m.err
}

// mockExporter implements Exporter for testing.
type mockExporter struct {
	data *driven.ExportData
	path string
}

func (m *mockExporter) Export(_ context.Context, path string) (*driven.ExportData, error) {
	m.path = path
	return m.data, nil
}

// mockPromptFiles implements PromptFiles for testing.
type mockPromptFiles struct {
	prompts map[string]string
	written bool
}

func (m *mockPromptFiles) Load(name string) (string, error) {
	text, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

func (m *mockPromptFiles) Reload() error        { return nil }
func (m *mockPromptFiles) Dir() string          { return "/prompts" }
func (m *mockPromptFiles) WriteDefaults() error { m.written = true; return nil }

// mockRuntime implements Runtime for testing.
type mockRuntime struct {
	opts     Options
	settings *domain.Settings
	config   *memory.ConfigStore
	pipeline *mockPipeline
	status   *mockStatusReporter
	exporter *mockExporter
	prompts  *mockPromptFiles

	imported    string
	importCount int
	checkErr    error
	closed      bool
}

func newMockRuntime() *mockRuntime {
	settings := domain.DefaultSettings()
	settings.LLM.APIKey = "test-key-1234567890"
	settings.Store.SQLitePath = "/tmp/records.db"
	settings.Store.ManifestPath = "/tmp/manifest.yaml"
	settings.State.Dir = "/tmp/state"
	return &mockRuntime{
		settings: &settings,
		config:   memory.NewConfigStore(),
		pipeline: &mockPipeline{result: &domain.RunResult{RunID: "run-1", Outcome: domain.RunCompleted}},
		status:   &mockStatusReporter{status: &driving.RunStatus{}},
		exporter: &mockExporter{data: &driven.ExportData{}},
		prompts:  &mockPromptFiles{prompts: map[string]string{"boilers/metadata": "Read {{.Text}}"}},
	}
}

func (m *mockRuntime) Settings() *domain.Settings { return m.settings }
func (m *mockRuntime) Config() driven.ConfigStore { return m.config }

func (m *mockRuntime) Pipeline(_ context.Context) (driving.Pipeline, error) {
	return m.pipeline, nil
}

func (m *mockRuntime) CheckLLM(_ context.Context) error { return m.checkErr }

func (m *mockRuntime) Status() (driving.StatusReporter, error) {
	return m.status, nil
}

func (m *mockRuntime) Exporter(_ context.Context) (Exporter, error) {
	return m.exporter, nil
}

func (m *mockRuntime) Prompts() PromptFiles { return m.prompts }

func (m *mockRuntime) ImportManifest(_ context.Context, path string) (int, error) {
	m.imported = path
	if m.importCount < 0 {
		return 0, errors.New("manifest unreadable")
	}
	return m.importCount, nil
}

func (m *mockRuntime) Close() error {
	m.closed = true
	return nil
}

// runCLI executes args against a mock runtime and returns the exit code and
// the combined output.
func runCLI(t *testing.T, rt *mockRuntime, args ...string) (int, string) {
	t.Helper()

	oldBootstrap := bootstrap
	bootstrap = func(_ context.Context, opts Options) (Runtime, error) {
		rt.opts = opts
		return rt, nil
	}
	t.Cleanup(func() {
		bootstrap = oldBootstrap
		resetFlags()
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	code := execute(context.Background(), args)
	rootCmd.SetArgs(nil)
	return code, buf.String()
}

// resetFlags restores flag variables shared between commands.
func resetFlags() {
	configDir, verbose, logFormat = "", false, "console"
	runLimit, runDryRun, runPromptSet, runStore, runIndex = 0, false, "", "", ""
	statusJSON = false
	exportPromptSet = ""
	indexImportTarget = ""
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

func TestExportCmd_DefaultPath(t *testing.T) {
	rt := newMockRuntime()
	rt.exporter.data = &driven.ExportData{
		Models:     []domain.EquipmentModel{{RecordKey: domain.RecordKey{GCNumber: "47-075-06"}}},
		FaultCodes: []domain.FaultCodeRecord{{}, {}},
	}

	code, out := runCLI(t, rt, "export")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "boilerbrain-export.xlsx", rt.exporter.path)
	assert.Contains(t, out, "1 models, 2 fault codes, 0 procedures, 0 manuals")
}

func TestExportCmd_PathAndPromptSet(t *testing.T) {
	rt := newMockRuntime()

	code, _ := runCLI(t, rt, "export", "out/appliances.xlsx", "--prompt-set", "appliances")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "out/appliances.xlsx", rt.exporter.path)
	assert.Equal(t, "appliances", rt.opts.PromptSet)
}

func TestPromptsCmd_WritesDefaults(t *testing.T) {
	rt := newMockRuntime()

	code, out := runCLI(t, rt, "prompts")

	assert.Equal(t, ExitOK, code)
	assert.True(t, rt.prompts.written)
	assert.Contains(t, out, "Prompts in /prompts")
	assert.Contains(t, out, "boilers/fault_codes.txt")
	assert.Contains(t, out, "appliances/procedures.txt")
	assert.Contains(t, out, "Active prompt set: boilers")
}

func TestPromptsShowCmd(t *testing.T) {
	rt := newMockRuntime()

	code, out := runCLI(t, rt, "prompts", "show", "boilers/metadata")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Read {{.Text}}")

	code, _ = runCLI(t, rt, "prompts", "show", "boilers/unknown")
	assert.Equal(t, ExitError, code)
}

func TestIndexImportCmd(t *testing.T) {
	rt := newMockRuntime()
	rt.importCount = 3
	rt.settings.Store.Index = domain.IndexSQLite

	code, out := runCLI(t, rt, "index", "import", "manuals.yaml", "--index", "sqlite")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "manuals.yaml", rt.imported)
	assert.Equal(t, "sqlite", rt.opts.Index)
	assert.Contains(t, out, "Imported 3 manuals into the sqlite index")
}

func TestIndexImportCmd_Error(t *testing.T) {
	rt := newMockRuntime()
	rt.importCount = -1

	code, out := runCLI(t, rt, "index", "import", "manuals.yaml")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "import failed: manifest unreadable")
}

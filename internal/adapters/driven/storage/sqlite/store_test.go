package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tables := domain.BuiltinTableMappings()[domain.PromptSetBoilers]
	store, err := NewStore(filepath.Join(t.TempDir(), "records.db"), tables)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func key(gc string) domain.RecordKey {
	return domain.RecordKey{GCNumber: gc, Manufacturer: "Worcester", ModelName: "Greenstar 30i"}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	path := filepath.Join(dir, "records.db")

	store, err := NewStore(path, domain.BuiltinTableMappings()[domain.PromptSetAppliances])
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, path, store.Path())
	assert.Equal(t, "appliance_models", store.Tables().Models)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	tables := domain.BuiltinTableMappings()[domain.PromptSetBoilers]

	first, err := NewStore(path, tables)
	require.NoError(t, err)
	_, err = first.UpsertModel(context.Background(), domain.EquipmentModel{RecordKey: key("4707506")})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(path, tables)
	require.NoError(t, err)
	defer second.Close()

	models, err := second.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

func TestNewStore_UnknownTable(t *testing.T) {
	tables := domain.BuiltinTableMappings()[domain.PromptSetBoilers]
	tables.Sections = "kettle_sections"

	_, err := NewStore(filepath.Join(t.TempDir(), "records.db"), tables)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestNewStore_RejectsUnsafeTableName(t *testing.T) {
	tables := domain.BuiltinTableMappings()[domain.PromptSetBoilers]
	tables.Models = "boiler_models; DROP TABLE boiler_manuals"

	_, err := NewStore(filepath.Join(t.TempDir(), "records.db"), tables)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_EmptyMapping(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "records.db"), domain.TableMapping{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ==================== Record Store Tests ====================

func TestUpsertModel_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	model := domain.EquipmentModel{
		RecordKey:      key("4707506"),
		Variants:       []string{"30i", "25i"},
		EquipmentClass: "combi",
		FuelType:       "natural gas",
		SourceDocument: "greenstar-30i.pdf",
	}

	inserted, err := store.UpsertModel(ctx, model)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.UpsertModel(ctx, model)
	require.NoError(t, err)
	assert.False(t, inserted)

	models, err := store.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "4707506", models[0].GCNumber)
	assert.Equal(t, []string{"30i", "25i"}, models[0].Variants)
	assert.Equal(t, "combi", models[0].EquipmentClass)
}

func TestUpsertModel_SameGCDifferentManufacturer(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertModel(ctx, domain.EquipmentModel{RecordKey: key("4707506")})
	require.NoError(t, err)
	other := key("4707506")
	other.Manufacturer = "Vaillant"
	inserted, err := store.UpsertModel(ctx, domain.EquipmentModel{RecordKey: other})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestInsertFaultCode_ConflictKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := func(code string, causes ...string) domain.FaultCodeRecord {
		return domain.FaultCodeRecord{
			RecordKey: key("4707506"),
			FaultCode: domain.FaultCode{Code: code, Description: "No flame", CauseCodes: causes},
		}
	}

	inserted, err := store.InsertFaultCode(ctx, rec("ea", "227", "229"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same code with different case and reordered cause codes is a duplicate.
	inserted, err = store.InsertFaultCode(ctx, rec("EA", "229", "227"))
	require.NoError(t, err)
	assert.False(t, inserted)

	// A different cause set is a separate row.
	inserted, err = store.InsertFaultCode(ctx, rec("EA", "228"))
	require.NoError(t, err)
	assert.True(t, inserted)

	codes, err := store.ListFaultCodes(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "EA", codes[0].Code)
	assert.Equal(t, []string{"227", "229"}, codes[0].CauseCodes)
	assert.Nil(t, codes[0].Solutions)
}

func TestInsertProcedure_NameKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	inserted, err := store.InsertProcedure(ctx, domain.ProcedureRecord{
		RecordKey: key("4707506"),
		Procedure: domain.Procedure{
			Name:         "Replacing the  Fan",
			Category:     "replacement",
			Steps:        []string{"Isolate", "Remove case"},
			PageRefStart: 42,
		},
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertProcedure(ctx, domain.ProcedureRecord{
		RecordKey: key("4707506"),
		Procedure: domain.Procedure{Name: "replacing the fan"},
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	procs, err := store.ListProcedures(ctx)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, "Replacing the  Fan", procs[0].Name)
	assert.Equal(t, 42, procs[0].PageRefStart)
	assert.Equal(t, []string{"Isolate", "Remove case"}, procs[0].Steps)
}

func TestInsertSection_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sec := domain.SectionRecord{
		RecordKey: key("4707506"),
		Title:     "Servicing",
		Order:     3,
		Level:     1,
		StartPage: 10,
		EndPage:   15,
		Content:   "Check the flue",
	}
	inserted, err := store.InsertSection(ctx, sec)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertSection(ctx, sec)
	require.NoError(t, err)
	assert.False(t, inserted)

	sec.Order = 4
	inserted, err = store.InsertSection(ctx, sec)
	require.NoError(t, err)
	assert.True(t, inserted)

	sections, err := store.ListSections(ctx)
	require.NoError(t, err)
	assert.Len(t, sections, 2)
	assert.Equal(t, 15, sections[0].EndPage)
}

func TestUpsertManual_Updates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertManual(ctx, domain.ManualRecord{
		Name:        "greenstar-30i.pdf",
		Origin:      "https://example.com/greenstar-30i.pdf",
		Placeholder: true,
		GCNumbers:   []string{"UNKNOWN-GREENSTAR-30I"},
		PageCount:   40,
	}))
	require.NoError(t, store.UpsertManual(ctx, domain.ManualRecord{
		Name:         "greenstar-30i.pdf",
		Origin:       "https://example.com/greenstar-30i.pdf",
		Manufacturer: "Worcester",
		GCNumbers:    []string{"4707506"},
		PageCount:    40,
		CharCount:    90000,
	}))

	manuals, err := store.ListManuals(ctx)
	require.NoError(t, err)
	require.Len(t, manuals, 1)
	assert.False(t, manuals[0].Placeholder)
	assert.Equal(t, "Worcester", manuals[0].Manufacturer)
	assert.Equal(t, []string{"4707506"}, manuals[0].GCNumbers)
	assert.Equal(t, 90000, manuals[0].CharCount)
}

func TestStore_PromptSetsAreSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()

	boilers, err := NewStore(path, domain.BuiltinTableMappings()[domain.PromptSetBoilers])
	require.NoError(t, err)
	defer boilers.Close()
	_, err = boilers.UpsertModel(ctx, domain.EquipmentModel{RecordKey: key("4707506")})
	require.NoError(t, err)

	appliances, err := NewStore(path, domain.BuiltinTableMappings()[domain.PromptSetAppliances])
	require.NoError(t, err)
	defer appliances.Close()

	models, err := appliances.ListModels(ctx)
	require.NoError(t, err)
	assert.Empty(t, models)
}

// ==================== Index Tests ====================

func TestIndex_AddAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	index := store.Index()

	n, err := index.Add(ctx, []domain.SourceDocument{
		{Name: "worcester-greenstar.pdf", Origin: "https://example.com/a.pdf", ManufacturerHint: "Worcester"},
		{Name: "vaillant-ecotec.pdf", Origin: "https://example.com/b.pdf", ManufacturerHint: "Vaillant"},
		{Name: "ideal-logic.PDF", Origin: "https://example.com/c.pdf"},
		{Name: "notes.txt", Origin: "https://example.com/d.txt"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	docs, err := index.List(ctx, driven.IndexQuery{Filter: "%.pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "ideal-logic.PDF", docs[0].Name)
	assert.Equal(t, "Vaillant", docs[1].ManufacturerHint)

	docs, err = index.List(ctx, driven.IndexQuery{Filter: "%.pdf", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = index.List(ctx, driven.IndexQuery{})
	require.NoError(t, err)
	assert.Len(t, docs, 4)
}

func TestIndex_ExcludeAppliesBeforeLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	index := store.Index()

	_, err := index.Add(ctx, []domain.SourceDocument{
		{Name: "a.pdf", Origin: "/m/a.pdf"},
		{Name: "b.pdf", Origin: "/m/b.pdf"},
		{Name: "c.pdf", Origin: "/m/c.pdf"},
		{Name: "d.pdf", Origin: "/m/d.pdf"},
	})
	require.NoError(t, err)

	docs, err := index.List(ctx, driven.IndexQuery{Limit: 2, Exclude: []string{"a.pdf", "b.pdf"}})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c.pdf", docs[0].Name)
	assert.Equal(t, "d.pdf", docs[1].Name)

	docs, err = index.List(ctx, driven.IndexQuery{Exclude: []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"}})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIndex_AddUpdatesOrigin(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	index := store.Index()

	_, err := index.Add(ctx, []domain.SourceDocument{{Name: "a.pdf", Origin: "/old/a.pdf"}})
	require.NoError(t, err)
	_, err = index.Add(ctx, []domain.SourceDocument{{Name: "a.pdf", Origin: "/new/a.pdf"}})
	require.NoError(t, err)

	docs, err := index.List(ctx, driven.IndexQuery{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "/new/a.pdf", docs[0].Origin)
}

func TestIndex_AddRejectsIncompleteEntry(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Index().Add(context.Background(), []domain.SourceDocument{{Name: "a.pdf"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	docs, err := store.Index().List(context.Background(), driven.IndexQuery{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.RecordStore  = (*Store)(nil)
	_ driven.RecordLister = (*Store)(nil)
)

// tableName limits mapped table names to plain identifiers so they can be
// interpolated into SQL.
var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store is a SQLite record store. Table names come from the active prompt
// set's mapping; every insert is idempotent on the table's natural key.
type Store struct {
	db     *sql.DB
	path   string
	tables domain.TableMapping
}

// NewStore opens (creating if needed) the database at dbPath, runs the
// migrations and checks the mapped tables exist.
// If dbPath is empty, defaults to ~/.boilerbrain/records.db.
func NewStore(dbPath string, tables domain.TableMapping) (*Store, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	for _, name := range tableNames(tables) {
		if !tableName.MatchString(name) {
			return nil, fmt.Errorf("%w: table name %q", domain.ErrInvalidInput, name)
		}
	}

	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".boilerbrain", "records.db")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:     db,
		path:   dbPath,
		tables: tables,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := s.checkTables(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Tables returns the table mapping in use.
func (s *Store) Tables() domain.TableMapping {
	return s.tables
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_records.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// checkTables fails when a mapped table was not created by the migrations.
func (s *Store) checkTables() error {
	for _, name := range tableNames(s.tables) {
		var found string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: table %s does not exist", domain.ErrPersistence, name)
		}
		if err != nil {
			return fmt.Errorf("checking table %s: %w", name, err)
		}
	}
	return nil
}

func tableNames(m domain.TableMapping) []string {
	return []string{m.Models, m.FaultCodes, m.Procedures, m.Sections, m.Manuals}
}

// ==================== Record Store ====================

// UpsertModel inserts the model unless (gc_number, manufacturer) exists.
func (s *Store) UpsertModel(ctx context.Context, m domain.EquipmentModel) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO `+s.tables.Models+` (gc_number, manufacturer, model_name, variants,
			equipment_class, fuel_type, rated_output, source_document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (gc_number, manufacturer) DO NOTHING
	`, m.GCNumber, m.Manufacturer, m.ModelName, marshalList(m.Variants),
		m.EquipmentClass, m.FuelType, m.RatedOutput, m.SourceDocument)
	return inserted(res, err, "inserting model")
}

// InsertFaultCode inserts unless (gc_number, fault_code, cause_key) exists.
func (s *Store) InsertFaultCode(ctx context.Context, r domain.FaultCodeRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO `+s.tables.FaultCodes+` (gc_number, manufacturer, model_name, fault_code, cause_key,
			description, cause_codes, possible_causes, solutions, severity, source_document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (gc_number, fault_code, cause_key) DO NOTHING
	`, r.GCNumber, r.Manufacturer, r.ModelName, faultCodeKey(r.FaultCode), r.CauseKey(),
		r.Description, marshalList(r.CauseCodes), marshalList(r.Causes), marshalList(r.Solutions),
		r.Severity, r.SourceDocument)
	return inserted(res, err, "inserting fault code")
}

// InsertProcedure inserts unless (gc_number, name) exists, comparing names
// case-insensitively with whitespace collapsed.
func (s *Store) InsertProcedure(ctx context.Context, r domain.ProcedureRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO `+s.tables.Procedures+` (gc_number, manufacturer, model_name, name, name_key, category,
			steps, tools, safety_notes, test_values, page_ref_start, source_document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (gc_number, name_key) DO NOTHING
	`, r.GCNumber, r.Manufacturer, r.ModelName, r.Name, r.Procedure.NaturalKey(), r.Category,
		marshalList(r.Steps), marshalList(r.Tools), marshalList(r.SafetyNotes), marshalList(r.TestValues),
		r.PageRefStart, r.SourceDocument)
	return inserted(res, err, "inserting procedure")
}

// InsertSection inserts unless (gc_number, title, section_order) exists.
func (s *Store) InsertSection(ctx context.Context, r domain.SectionRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO `+s.tables.Sections+` (gc_number, manufacturer, model_name, title, section_order,
			level, start_page, end_page, content, source_document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (gc_number, title, section_order) DO NOTHING
	`, r.GCNumber, r.Manufacturer, r.ModelName, r.Title, r.Order,
		r.Level, r.StartPage, r.EndPage, r.Content, r.SourceDocument)
	return inserted(res, err, "inserting section")
}

// UpsertManual stores or updates the manual summary.
func (s *Store) UpsertManual(ctx context.Context, m domain.ManualRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+s.tables.Manuals+` (name, origin, manufacturer, model_name, gc_numbers,
			placeholder, page_count, char_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			origin = excluded.origin,
			manufacturer = excluded.manufacturer,
			model_name = excluded.model_name,
			gc_numbers = excluded.gc_numbers,
			placeholder = excluded.placeholder,
			page_count = excluded.page_count,
			char_count = excluded.char_count,
			updated_at = CURRENT_TIMESTAMP
	`, m.Name, m.Origin, m.Manufacturer, m.ModelName, marshalList(m.GCNumbers),
		m.Placeholder, m.PageCount, m.CharCount)
	if err != nil {
		return fmt.Errorf("saving manual: %w", err)
	}
	return nil
}

// ==================== Record Lister ====================

// ListModels returns every equipment model in insertion order.
func (s *Store) ListModels(ctx context.Context) ([]domain.EquipmentModel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gc_number, manufacturer, model_name, variants, equipment_class, fuel_type,
			rated_output, source_document
		FROM `+s.tables.Models+` ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer rows.Close()

	var out []domain.EquipmentModel //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.EquipmentModel
		var variants string
		if err := rows.Scan(&m.GCNumber, &m.Manufacturer, &m.ModelName, &variants,
			&m.EquipmentClass, &m.FuelType, &m.RatedOutput, &m.SourceDocument); err != nil {
			return nil, fmt.Errorf("scanning model: %w", err)
		}
		m.Variants = unmarshalList(variants)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating models: %w", err)
	}
	return out, nil
}

// ListFaultCodes returns every fault code row in insertion order.
func (s *Store) ListFaultCodes(ctx context.Context) ([]domain.FaultCodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gc_number, manufacturer, model_name, fault_code, description, cause_codes,
			possible_causes, solutions, severity, source_document
		FROM `+s.tables.FaultCodes+` ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying fault codes: %w", err)
	}
	defer rows.Close()

	var out []domain.FaultCodeRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.FaultCodeRecord
		var causeCodes, causes, solutions string
		if err := rows.Scan(&r.GCNumber, &r.Manufacturer, &r.ModelName, &r.Code, &r.Description,
			&causeCodes, &causes, &solutions, &r.Severity, &r.SourceDocument); err != nil {
			return nil, fmt.Errorf("scanning fault code: %w", err)
		}
		r.CauseCodes = unmarshalList(causeCodes)
		r.Causes = unmarshalList(causes)
		r.Solutions = unmarshalList(solutions)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fault codes: %w", err)
	}
	return out, nil
}

// ListProcedures returns every procedure row in insertion order.
func (s *Store) ListProcedures(ctx context.Context) ([]domain.ProcedureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gc_number, manufacturer, model_name, name, category, steps, tools,
			safety_notes, test_values, page_ref_start, source_document
		FROM `+s.tables.Procedures+` ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying procedures: %w", err)
	}
	defer rows.Close()

	var out []domain.ProcedureRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.ProcedureRecord
		var steps, tools, notes, values string
		if err := rows.Scan(&r.GCNumber, &r.Manufacturer, &r.ModelName, &r.Name, &r.Category,
			&steps, &tools, &notes, &values, &r.PageRefStart, &r.SourceDocument); err != nil {
			return nil, fmt.Errorf("scanning procedure: %w", err)
		}
		r.Steps = unmarshalList(steps)
		r.Tools = unmarshalList(tools)
		r.SafetyNotes = unmarshalList(notes)
		r.TestValues = unmarshalList(values)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating procedures: %w", err)
	}
	return out, nil
}

// ListSections returns every section row in insertion order.
func (s *Store) ListSections(ctx context.Context) ([]domain.SectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gc_number, manufacturer, model_name, title, section_order, level,
			start_page, end_page, content, source_document
		FROM `+s.tables.Sections+` ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var out []domain.SectionRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.SectionRecord
		if err := rows.Scan(&r.GCNumber, &r.Manufacturer, &r.ModelName, &r.Title, &r.Order, &r.Level,
			&r.StartPage, &r.EndPage, &r.Content, &r.SourceDocument); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}
	return out, nil
}

// ListManuals returns every manual ordered by name.
func (s *Store) ListManuals(ctx context.Context) ([]domain.ManualRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, origin, manufacturer, model_name, gc_numbers, placeholder, page_count, char_count
		FROM `+s.tables.Manuals+` ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying manuals: %w", err)
	}
	defer rows.Close()

	var out []domain.ManualRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.ManualRecord
		var gcNumbers string
		if err := rows.Scan(&m.Name, &m.Origin, &m.Manufacturer, &m.ModelName, &gcNumbers,
			&m.Placeholder, &m.PageCount, &m.CharCount); err != nil {
			return nil, fmt.Errorf("scanning manual: %w", err)
		}
		m.GCNumbers = unmarshalList(gcNumbers)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manuals: %w", err)
	}
	return out, nil
}

// ==================== Helpers ====================

func inserted(res sql.Result, err error, op string) (bool, error) {
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n > 0, nil
}

func faultCodeKey(fc domain.FaultCode) string {
	return strings.ToUpper(strings.TrimSpace(fc.Code))
}

// marshalList stores a string list as a JSON array, never null.
func marshalList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalList(s string) []string {
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	if len(v) == 0 {
		return nil
	}
	return v
}

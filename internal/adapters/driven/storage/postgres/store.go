package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// Ensure Store implements the interfaces.
var (
	_ driven.RecordStore  = (*Store)(nil)
	_ driven.RecordLister = (*Store)(nil)
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config holds pool settings.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DefaultConfig returns pool settings sized for one sequential run.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
	}
}

// Store is a PostgreSQL record store.
type Store struct {
	pool   *pgxpool.Pool
	tables domain.TableMapping
}

// Open connects a pool, pings it and ensures the schema exists.
func Open(ctx context.Context, cfg Config, tables domain.TableMapping) (*Store, error) {
	if err := validateTables(tables); err != nil {
		return nil, err
	}
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{pool: pool, tables: tables}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Debug("connected to postgres (max conns %d)", cfg.MaxConns)
	return s, nil
}

func poolConfig(cfg Config) (*pgxpool.Config, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: database URL is empty", domain.ErrInvalidInput)
	}
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing database URL: %v", domain.ErrInvalidInput, err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "boilerbrain-ingest"
	return pc, nil
}

func validateTables(t domain.TableMapping) error {
	if err := t.Validate(); err != nil {
		return err
	}
	for _, name := range []string{t.Models, t.FaultCodes, t.Procedures, t.Sections, t.Manuals} {
		if !tableName.MatchString(name) {
			return fmt.Errorf("%w: table name %q", domain.ErrInvalidInput, name)
		}
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Record Store ====================

// UpsertModel inserts the model unless (gc_number, manufacturer) exists.
func (s *Store) UpsertModel(ctx context.Context, m domain.EquipmentModel) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.tables.Models+` (gc_number, manufacturer, model_name, variants,
			equipment_class, fuel_type, rated_output, source_document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (gc_number, manufacturer) DO NOTHING
	`, m.GCNumber, m.Manufacturer, m.ModelName, list(m.Variants),
		m.EquipmentClass, m.FuelType, m.RatedOutput, m.SourceDocument)
	return inserted(tag, err, "inserting model")
}

// InsertFaultCode inserts unless (gc_number, fault_code, cause_key) exists.
func (s *Store) InsertFaultCode(ctx context.Context, r domain.FaultCodeRecord) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.tables.FaultCodes+` (gc_number, manufacturer, model_name, fault_code, cause_key,
			description, cause_codes, possible_causes, solutions, severity, source_document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (gc_number, fault_code, cause_key) DO NOTHING
	`, r.GCNumber, r.Manufacturer, r.ModelName, strings.ToUpper(strings.TrimSpace(r.Code)), r.CauseKey(),
		r.Description, list(r.CauseCodes), list(r.Causes), list(r.Solutions), r.Severity, r.SourceDocument)
	return inserted(tag, err, "inserting fault code")
}

// InsertProcedure inserts unless (gc_number, name_key) exists.
func (s *Store) InsertProcedure(ctx context.Context, r domain.ProcedureRecord) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.tables.Procedures+` (gc_number, manufacturer, model_name, name, name_key, category,
			steps, tools, safety_notes, test_values, page_ref_start, source_document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (gc_number, name_key) DO NOTHING
	`, r.GCNumber, r.Manufacturer, r.ModelName, r.Name, r.Procedure.NaturalKey(), r.Category,
		list(r.Steps), list(r.Tools), list(r.SafetyNotes), list(r.TestValues), r.PageRefStart, r.SourceDocument)
	return inserted(tag, err, "inserting procedure")
}

// InsertSection inserts unless (gc_number, title, section_order) exists.
func (s *Store) InsertSection(ctx context.Context, r domain.SectionRecord) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.tables.Sections+` (gc_number, manufacturer, model_name, title, section_order,
			level, start_page, end_page, content, source_document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (gc_number, title, section_order) DO NOTHING
	`, r.GCNumber, r.Manufacturer, r.ModelName, r.Title, r.Order,
		r.Level, r.StartPage, r.EndPage, r.Content, r.SourceDocument)
	return inserted(tag, err, "inserting section")
}

// UpsertManual stores or updates the manual summary.
func (s *Store) UpsertManual(ctx context.Context, m domain.ManualRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.tables.Manuals+` (name, origin, manufacturer, model_name, gc_numbers,
			placeholder, page_count, char_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			origin = EXCLUDED.origin,
			manufacturer = EXCLUDED.manufacturer,
			model_name = EXCLUDED.model_name,
			gc_numbers = EXCLUDED.gc_numbers,
			placeholder = EXCLUDED.placeholder,
			page_count = EXCLUDED.page_count,
			char_count = EXCLUDED.char_count,
			updated_at = now()
	`, m.Name, m.Origin, m.Manufacturer, m.ModelName, list(m.GCNumbers),
		m.Placeholder, m.PageCount, m.CharCount)
	if err != nil {
		return fmt.Errorf("saving manual: %w", err)
	}
	return nil
}

// ==================== Record Lister ====================

// ListModels returns every equipment model in insertion order.
func (s *Store) ListModels(ctx context.Context) ([]domain.EquipmentModel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT gc_number, manufacturer, model_name, variants, equipment_class, fuel_type,
			rated_output, source_document
		FROM `+s.tables.Models+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	return collect(rows, "models", func(row pgx.CollectableRow) (domain.EquipmentModel, error) {
		var m domain.EquipmentModel
		err := row.Scan(&m.GCNumber, &m.Manufacturer, &m.ModelName, &m.Variants,
			&m.EquipmentClass, &m.FuelType, &m.RatedOutput, &m.SourceDocument)
		m.Variants = nonEmpty(m.Variants)
		return m, err
	})
}

// ListFaultCodes returns every fault code row in insertion order.
func (s *Store) ListFaultCodes(ctx context.Context) ([]domain.FaultCodeRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT gc_number, manufacturer, model_name, fault_code, description, cause_codes,
			possible_causes, solutions, severity, source_document
		FROM `+s.tables.FaultCodes+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying fault codes: %w", err)
	}
	return collect(rows, "fault codes", func(row pgx.CollectableRow) (domain.FaultCodeRecord, error) {
		var r domain.FaultCodeRecord
		err := row.Scan(&r.GCNumber, &r.Manufacturer, &r.ModelName, &r.Code, &r.Description,
			&r.CauseCodes, &r.Causes, &r.Solutions, &r.Severity, &r.SourceDocument)
		r.CauseCodes = nonEmpty(r.CauseCodes)
		r.Causes = nonEmpty(r.Causes)
		r.Solutions = nonEmpty(r.Solutions)
		return r, err
	})
}

// ListProcedures returns every procedure row in insertion order.
func (s *Store) ListProcedures(ctx context.Context) ([]domain.ProcedureRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT gc_number, manufacturer, model_name, name, category, steps, tools,
			safety_notes, test_values, page_ref_start, source_document
		FROM `+s.tables.Procedures+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying procedures: %w", err)
	}
	return collect(rows, "procedures", func(row pgx.CollectableRow) (domain.ProcedureRecord, error) {
		var r domain.ProcedureRecord
		err := row.Scan(&r.GCNumber, &r.Manufacturer, &r.ModelName, &r.Name, &r.Category,
			&r.Steps, &r.Tools, &r.SafetyNotes, &r.TestValues, &r.PageRefStart, &r.SourceDocument)
		r.Steps = nonEmpty(r.Steps)
		r.Tools = nonEmpty(r.Tools)
		r.SafetyNotes = nonEmpty(r.SafetyNotes)
		r.TestValues = nonEmpty(r.TestValues)
		return r, err
	})
}

// ListManuals returns every manual ordered by name.
func (s *Store) ListManuals(ctx context.Context) ([]domain.ManualRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, origin, manufacturer, model_name, gc_numbers, placeholder, page_count, char_count
		FROM `+s.tables.Manuals+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying manuals: %w", err)
	}
	return collect(rows, "manuals", func(row pgx.CollectableRow) (domain.ManualRecord, error) {
		var m domain.ManualRecord
		err := row.Scan(&m.Name, &m.Origin, &m.Manufacturer, &m.ModelName, &m.GCNumbers,
			&m.Placeholder, &m.PageCount, &m.CharCount)
		m.GCNumbers = nonEmpty(m.GCNumbers)
		return m, err
	})
}

// ==================== Helpers ====================

func collect[T any](rows pgx.Rows, what string, fn pgx.RowToFunc[T]) ([]T, error) {
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", what, err)
	}
	return out, nil
}

func inserted(tag pgconn.CommandTag, err error, op string) (bool, error) {
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return false, fmt.Errorf("%s: %s (%s): %w", op, pgErr.Message, pgErr.Code, err)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() > 0, nil
}

// list keeps NOT NULL array columns from receiving NULL.
func list(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonEmpty(v []string) []string {
	if len(v) == 0 {
		return nil
	}
	return v
}

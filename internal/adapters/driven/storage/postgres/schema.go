package postgres

import (
	"context"
	"fmt"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

// schemaStatements returns the CREATE statements for a table mapping plus
// the shared manual_index table.
func schemaStatements(t domain.TableMapping) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + t.Models + ` (
			id BIGSERIAL PRIMARY KEY,
			gc_number TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			model_name TEXT NOT NULL DEFAULT '',
			variants TEXT[] NOT NULL DEFAULT '{}',
			equipment_class TEXT NOT NULL DEFAULT '',
			fuel_type TEXT NOT NULL DEFAULT '',
			rated_output TEXT NOT NULL DEFAULT '',
			source_document TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (gc_number, manufacturer)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.FaultCodes + ` (
			id BIGSERIAL PRIMARY KEY,
			gc_number TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			model_name TEXT NOT NULL DEFAULT '',
			fault_code TEXT NOT NULL,
			cause_key TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			cause_codes TEXT[] NOT NULL DEFAULT '{}',
			possible_causes TEXT[] NOT NULL DEFAULT '{}',
			solutions TEXT[] NOT NULL DEFAULT '{}',
			severity TEXT NOT NULL DEFAULT '',
			source_document TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (gc_number, fault_code, cause_key)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.Procedures + ` (
			id BIGSERIAL PRIMARY KEY,
			gc_number TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			model_name TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			name_key TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			steps TEXT[] NOT NULL DEFAULT '{}',
			tools TEXT[] NOT NULL DEFAULT '{}',
			safety_notes TEXT[] NOT NULL DEFAULT '{}',
			test_values TEXT[] NOT NULL DEFAULT '{}',
			page_ref_start INTEGER NOT NULL DEFAULT 0,
			source_document TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (gc_number, name_key)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.Sections + ` (
			id BIGSERIAL PRIMARY KEY,
			gc_number TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			model_name TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			section_order INTEGER NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			start_page INTEGER NOT NULL,
			end_page INTEGER NOT NULL,
			content TEXT NOT NULL,
			source_document TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (gc_number, title, section_order)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + t.Manuals + ` (
			name TEXT PRIMARY KEY,
			origin TEXT NOT NULL DEFAULT '',
			manufacturer TEXT NOT NULL DEFAULT '',
			model_name TEXT NOT NULL DEFAULT '',
			gc_numbers TEXT[] NOT NULL DEFAULT '{}',
			placeholder BOOLEAN NOT NULL DEFAULT false,
			page_count INTEGER NOT NULL DEFAULT 0,
			char_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS manual_index (
			name TEXT PRIMARY KEY,
			origin TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			added_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + t.FaultCodes + `_gc_idx ON ` + t.FaultCodes + ` (gc_number)`,
		`CREATE INDEX IF NOT EXISTS ` + t.Procedures + `_gc_idx ON ` + t.Procedures + ` (gc_number)`,
		`CREATE INDEX IF NOT EXISTS ` + t.Sections + `_gc_idx ON ` + t.Sections + ` (gc_number)`,
	}
}

// EnsureSchema creates the mapped tables and manual_index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.tables) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// Package sqlite provides the SQLite record store and document index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database holds:
//
//   - the record tables of both built-in prompt sets (boiler_* and appliance_*)
//   - manual_index, the candidate list for the sqlite document index
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Idempotency
//
// Every record insert uses ON CONFLICT ... DO NOTHING on the table's natural key,
// so re-running a document never duplicates rows.
//
// # Data Location
//
// By default, the database is stored at ~/.boilerbrain/records.db
package sqlite

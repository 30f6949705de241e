// Package postgres provides the PostgreSQL record store and document index.
//
// Connections are pooled with pgxpool. Table names come from the prompt
// set's table mapping; EnsureSchema creates them when missing. The
// manual_index table lists candidate manuals for a run.
package postgres

// Package driving holds the interfaces the CLI calls into: running the
// extraction pipeline and reading back its progress. Services implement them.
package driving

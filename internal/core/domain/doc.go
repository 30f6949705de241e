// Package domain defines the core business entities for the manual
// extraction pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDocument: A manual listed by the document index
//   - RetrievedText: Per-page text extracted from a manual
//   - Identifier: A normalised GC number (equipment number)
//   - ExtractedMetadata and the record types persisted per document
//   - RunStatistics and RunResult: Telemetry for one pipeline run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

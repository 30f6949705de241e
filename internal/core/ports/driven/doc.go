// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentIndex: Lists candidate manuals
//   - DocumentFetcher: Retrieves raw document bytes
//   - TextExtractor: Produces per-page text
//   - LLMService: The extraction model service
//   - RecordStore: Idempotent record persistence
//   - ProgressStore: Processed set and run statistics
//   - PromptStore: Prompt templates
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - RecordLister: Read-back of persisted records, used by export.
//   - DocumentIndexWriter: Loads manifest entries into a database index.
//   - WorkbookWriter: Renders exported records.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: editable extraction prompt templates
//   - ProgressStore: processed set, run statistics and run summary
package file

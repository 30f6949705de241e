package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an extraction model provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is Google's Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// APIKeyEnv returns the environment variable holding this provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AllLLMProviders returns every supported provider.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderGemini, AIProviderOpenAI, AIProviderAnthropic}
}

// DefaultLLMModels returns default models for each provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-1.5-flash",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// LLMSettings holds extraction model configuration.
type LLMSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is read from the environment, never from the config file.
	APIKey string

	// RequestsPerMinute is the proactive client-side ceiling. Zero disables it.
	RequestsPerMinute int

	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && l.APIKey != ""
}

// Validate checks the LLM settings.
func (l LLMSettings) Validate() error {
	if !l.Provider.IsValid() {
		return fmt.Errorf("%w: llm provider %q", ErrUnsupportedType, l.Provider)
	}
	if l.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: llm requests per minute must not be negative", ErrInvalidInput)
	}
	return nil
}

// StoreType selects the record store backend.
type StoreType string

// Available record stores.
const (
	StorePostgres StoreType = "postgres"
	StoreSQLite   StoreType = "sqlite"
	StoreMemory   StoreType = "memory"
)

// IsValid returns true if the store type is recognised.
func (t StoreType) IsValid() bool {
	switch t {
	case StorePostgres, StoreSQLite, StoreMemory:
		return true
	default:
		return false
	}
}

// IndexType selects the document index backend.
type IndexType string

// Available document indexes.
const (
	IndexPostgres IndexType = "postgres"
	IndexSQLite   IndexType = "sqlite"
	IndexManifest IndexType = "manifest"
)

// IsValid returns true if the index type is recognised.
func (t IndexType) IsValid() bool {
	switch t {
	case IndexPostgres, IndexSQLite, IndexManifest:
		return true
	default:
		return false
	}
}

// StoreSettings configures the record store and the document index.
type StoreSettings struct {
	Type StoreType

	// DatabaseURL is the postgres connection string, read from the environment.
	DatabaseURL string

	// SQLitePath is the local database file.
	SQLitePath string

	Index IndexType

	// ManifestPath is the YAML manifest used by the manifest index.
	ManifestPath string
}

// Validate checks the store settings.
func (s StoreSettings) Validate() error {
	if !s.Type.IsValid() {
		return fmt.Errorf("%w: store %q", ErrUnsupportedType, s.Type)
	}
	if !s.Index.IsValid() {
		return fmt.Errorf("%w: index %q", ErrUnsupportedType, s.Index)
	}
	if (s.Type == StorePostgres || s.Index == IndexPostgres) && s.DatabaseURL == "" {
		return fmt.Errorf("%w: postgres requires BOILERBRAIN_DATABASE_URL", ErrInvalidInput)
	}
	if (s.Type == StoreSQLite || s.Index == IndexSQLite) && s.SQLitePath == "" {
		return fmt.Errorf("%w: sqlite path is empty", ErrInvalidInput)
	}
	if s.Index == IndexManifest && s.ManifestPath == "" {
		return fmt.Errorf("%w: manifest path is empty", ErrInvalidInput)
	}
	return nil
}

// StateSettings locates the durable local state files.
type StateSettings struct {
	Dir string

	// Disabled suppresses every state write (dry runs).
	Disabled bool
}

// Validate checks the state settings.
func (s StateSettings) Validate() error {
	if !s.Disabled && s.Dir == "" {
		return fmt.Errorf("%w: state directory is empty", ErrInvalidInput)
	}
	return nil
}

// PipelineSettings holds the thresholds, caps and pacing of a run.
type PipelineSettings struct {
	// Gating.
	MinBytes     int64
	MaxBytes     int64
	MinTextChars int

	// Prompt payload slicing.
	MetadataPages int
	MetadataChars int
	FullTextChars int

	// Retry policy for rate-limit signals.
	MaxAttempts int
	BaseDelay   time.Duration

	// Pacing.
	CallDelay     time.Duration
	DocumentDelay time.Duration

	// Section slicing.
	MaxContentsEntries int
	LastSectionPages   int
	MaxSectionChars    int
	MinSectionChars    int

	// Candidate selection.
	IndexFilter          string
	IndexRowCap          int
	ManufacturerPriority []string

	// DocumentLimit stops the run after this many documents. Zero means no limit.
	DocumentLimit int

	// FlushEvery is the milestone flush cadence in documents.
	FlushEvery int

	PromptSet string
}

// Validate checks the pipeline settings.
func (p PipelineSettings) Validate() error {
	switch {
	case p.MinBytes < 0 || p.MaxBytes <= 0 || p.MinBytes >= p.MaxBytes:
		return fmt.Errorf("%w: byte gate must satisfy 0 <= min < max", ErrInvalidInput)
	case p.MinTextChars < 0:
		return fmt.Errorf("%w: min text chars must not be negative", ErrInvalidInput)
	case p.MetadataPages <= 0 || p.MetadataChars <= 0 || p.FullTextChars <= 0:
		return fmt.Errorf("%w: prompt payload caps must be positive", ErrInvalidInput)
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidInput)
	case p.BaseDelay < 0 || p.CallDelay < 0 || p.DocumentDelay < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidInput)
	case p.MaxContentsEntries <= 0 || p.LastSectionPages <= 0 || p.MaxSectionChars <= 0:
		return fmt.Errorf("%w: section caps must be positive", ErrInvalidInput)
	case p.MinSectionChars < 0 || p.MinSectionChars >= p.MaxSectionChars:
		return fmt.Errorf("%w: min section chars must be below max section chars", ErrInvalidInput)
	case p.IndexRowCap <= 0:
		return fmt.Errorf("%w: index row cap must be positive", ErrInvalidInput)
	case p.DocumentLimit < 0:
		return fmt.Errorf("%w: document limit must not be negative", ErrInvalidInput)
	case p.FlushEvery <= 0:
		return fmt.Errorf("%w: flush cadence must be positive", ErrInvalidInput)
	case p.PromptSet == "":
		return fmt.Errorf("%w: prompt set is empty", ErrInvalidInput)
	}
	return nil
}

// DefaultPipelineSettings returns the production defaults.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		MinBytes:     50 * 1024,
		MaxBytes:     40 * 1024 * 1024,
		MinTextChars: 500,

		MetadataPages: 10,
		MetadataChars: 15000,
		FullTextChars: 60000,

		MaxAttempts: 3,
		BaseDelay:   30 * time.Second,

		CallDelay:     4 * time.Second,
		DocumentDelay: 10 * time.Second,

		MaxContentsEntries: 50,
		LastSectionPages:   5,
		MaxSectionChars:    10000,
		MinSectionChars:    200,

		IndexFilter: "%.pdf",
		IndexRowCap: 1000,

		FlushEvery: 5,
		PromptSet:  PromptSetBoilers,
	}
}

// Settings is everything a run needs. It is built once per run.
type Settings struct {
	Pipeline PipelineSettings
	LLM      LLMSettings
	Store    StoreSettings
	State    StateSettings
	Pricing  PricingTable
	DryRun   bool
}

// Validate checks every section.
func (s Settings) Validate() error {
	if err := s.Pipeline.Validate(); err != nil {
		return err
	}
	if err := s.LLM.Validate(); err != nil {
		return err
	}
	if err := s.Store.Validate(); err != nil {
		return err
	}
	return s.State.Validate()
}

// DefaultSettings returns settings with sensible defaults.
// API keys and database URLs are left empty; they come from the environment.
func DefaultSettings() Settings {
	return Settings{
		Pipeline: DefaultPipelineSettings(),
		LLM: LLMSettings{
			Provider:          AIProviderGemini,
			Model:             DefaultLLMModels()[AIProviderGemini],
			RequestsPerMinute: 15,
			Timeout:           120 * time.Second,
		},
		Store: StoreSettings{
			Type:  StoreSQLite,
			Index: IndexManifest,
		},
		Pricing: DefaultPricing(),
	}
}

package services

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// Config keys for settings storage.
const (
	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMRPM      = "llm.requests_per_minute"
	keyLLMTimeout  = "llm.timeout"

	keyStoreType     = "store.type"
	keyStoreSQLite   = "store.sqlite_path"
	keyStoreIndex    = "store.index"
	keyStoreManifest = "store.manifest_path"

	keyStateDir = "state.dir"

	keyMinBytes           = "pipeline.min_bytes"
	keyMaxBytes           = "pipeline.max_bytes"
	keyMinTextChars       = "pipeline.min_text_chars"
	keyMetadataPages      = "pipeline.metadata_pages"
	keyMetadataChars      = "pipeline.metadata_chars"
	keyFullTextChars      = "pipeline.full_text_chars"
	keyMaxAttempts        = "pipeline.max_attempts"
	keyBaseDelay          = "pipeline.base_delay"
	keyCallDelay          = "pipeline.call_delay"
	keyDocumentDelay      = "pipeline.document_delay"
	keyMaxContentsEntries = "pipeline.max_contents_entries"
	keyLastSectionPages   = "pipeline.last_section_pages"
	keyMaxSectionChars    = "pipeline.max_section_chars"
	keyMinSectionChars    = "pipeline.min_section_chars"
	keyIndexFilter        = "pipeline.index_filter"
	keyIndexRowCap        = "pipeline.index_row_cap"
	keyPriority           = "pipeline.manufacturer_priority"
	keyDocumentLimit      = "pipeline.document_limit"
	keyFlushEvery         = "pipeline.flush_every"
	keyPromptSet          = "pipeline.prompt_set"

	pricingPrefix = "pricing."
)

// EnvDatabaseURL holds the postgres connection string.
const EnvDatabaseURL = "BOILERBRAIN_DATABASE_URL"

// SettingsLoader builds run settings from the config store and the
// environment. Secrets are only ever read from the environment.
type SettingsLoader struct {
	configStore driven.ConfigStore
	getenv      func(string) string
	baseDir     string
}

// NewSettingsLoader creates a settings loader. baseDir anchors the default
// database, manifest and state paths.
func NewSettingsLoader(configStore driven.ConfigStore, getenv func(string) string, baseDir string) *SettingsLoader {
	return &SettingsLoader{
		configStore: configStore,
		getenv:      getenv,
		baseDir:     baseDir,
	}
}

// Load returns settings with config values applied over the defaults.
// The result is not validated; callers apply flag overrides first.
func (s *SettingsLoader) Load() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	provider := s.getProvider(settings.LLM.Provider)
	model := s.configStore.GetString(keyLLMModel)
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM = domain.LLMSettings{
		Provider:          provider,
		Model:             model,
		BaseURL:           s.configStore.GetString(keyLLMBaseURL),
		APIKey:            s.getenv(provider.APIKeyEnv()),
		RequestsPerMinute: s.getInt(keyLLMRPM, settings.LLM.RequestsPerMinute),
		Timeout:           s.getDuration(keyLLMTimeout, settings.LLM.Timeout),
	}

	settings.Store = domain.StoreSettings{
		Type:         domain.StoreType(s.getString(keyStoreType, string(settings.Store.Type))),
		DatabaseURL:  s.getenv(EnvDatabaseURL),
		SQLitePath:   s.getString(keyStoreSQLite, filepath.Join(s.baseDir, "records.db")),
		Index:        domain.IndexType(s.getString(keyStoreIndex, string(settings.Store.Index))),
		ManifestPath: s.getString(keyStoreManifest, filepath.Join(s.baseDir, "manifest.yaml")),
	}

	settings.State = domain.StateSettings{
		Dir: s.getString(keyStateDir, filepath.Join(s.baseDir, "state")),
	}

	settings.Pipeline = s.loadPipeline(settings.Pipeline)

	pricing, err := s.loadPricing(settings.Pricing)
	if err != nil {
		return nil, err
	}
	settings.Pricing = pricing

	return &settings, nil
}

func (s *SettingsLoader) loadPipeline(p domain.PipelineSettings) domain.PipelineSettings {
	p.MinBytes = int64(s.getInt(keyMinBytes, int(p.MinBytes)))
	p.MaxBytes = int64(s.getInt(keyMaxBytes, int(p.MaxBytes)))
	p.MinTextChars = s.getInt(keyMinTextChars, p.MinTextChars)
	p.MetadataPages = s.getInt(keyMetadataPages, p.MetadataPages)
	p.MetadataChars = s.getInt(keyMetadataChars, p.MetadataChars)
	p.FullTextChars = s.getInt(keyFullTextChars, p.FullTextChars)
	p.MaxAttempts = s.getInt(keyMaxAttempts, p.MaxAttempts)
	p.BaseDelay = s.getDuration(keyBaseDelay, p.BaseDelay)
	p.CallDelay = s.getDuration(keyCallDelay, p.CallDelay)
	p.DocumentDelay = s.getDuration(keyDocumentDelay, p.DocumentDelay)
	p.MaxContentsEntries = s.getInt(keyMaxContentsEntries, p.MaxContentsEntries)
	p.LastSectionPages = s.getInt(keyLastSectionPages, p.LastSectionPages)
	p.MaxSectionChars = s.getInt(keyMaxSectionChars, p.MaxSectionChars)
	p.MinSectionChars = s.getInt(keyMinSectionChars, p.MinSectionChars)
	p.IndexFilter = s.getString(keyIndexFilter, p.IndexFilter)
	p.IndexRowCap = s.getInt(keyIndexRowCap, p.IndexRowCap)
	if priority := s.configStore.GetStringSlice(keyPriority); len(priority) > 0 {
		p.ManufacturerPriority = priority
	}
	p.DocumentLimit = s.getInt(keyDocumentLimit, p.DocumentLimit)
	p.FlushEvery = s.getInt(keyFlushEvery, p.FlushEvery)
	p.PromptSet = s.getString(keyPromptSet, p.PromptSet)
	return p
}

// loadPricing merges "pricing.<model>.input_per_mtok" and
// "pricing.<model>.output_per_mtok" entries over the defaults.
func (s *SettingsLoader) loadPricing(defaults domain.PricingTable) (domain.PricingTable, error) {
	table := make(domain.PricingTable, len(defaults))
	for k, v := range defaults {
		table[k] = v
	}
	for _, key := range s.configStore.Keys(pricingPrefix) {
		rest := strings.TrimPrefix(key, pricingPrefix)
		dot := strings.LastIndex(rest, ".")
		if dot <= 0 {
			return nil, fmt.Errorf("%w: pricing key %q", domain.ErrInvalidInput, key)
		}
		model, field := rest[:dot], rest[dot+1:]
		price := table[model]
		switch field {
		case "input_per_mtok":
			price.InputPerMTok = s.configStore.GetFloat(key)
		case "output_per_mtok":
			price.OutputPerMTok = s.configStore.GetFloat(key)
		default:
			return nil, fmt.Errorf("%w: pricing field %q", domain.ErrInvalidInput, field)
		}
		table[model] = price
	}
	return table, nil
}

// ==================== Editing ====================

var intKeys = map[string]bool{
	keyLLMRPM: true, keyMinBytes: true, keyMaxBytes: true, keyMinTextChars: true,
	keyMetadataPages: true, keyMetadataChars: true, keyFullTextChars: true,
	keyMaxAttempts: true, keyMaxContentsEntries: true, keyLastSectionPages: true,
	keyMaxSectionChars: true, keyMinSectionChars: true, keyIndexRowCap: true,
	keyDocumentLimit: true, keyFlushEvery: true,
}

var durationKeys = map[string]bool{
	keyLLMTimeout: true, keyBaseDelay: true, keyCallDelay: true, keyDocumentDelay: true,
}

var stringKeys = map[string]bool{
	keyLLMProvider: true, keyLLMModel: true, keyLLMBaseURL: true,
	keyStoreType: true, keyStoreSQLite: true, keyStoreIndex: true, keyStoreManifest: true,
	keyStateDir: true, keyIndexFilter: true, keyPromptSet: true,
}

// ParseSetting converts a command-line value into the type stored under key.
// Manufacturer priority takes a comma separated list.
func ParseSetting(key, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case intKeys[key]:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s wants an integer, got %q", domain.ErrInvalidInput, key, raw)
		}
		return n, nil
	case durationKeys[key]:
		if _, err := time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("%w: %s wants a duration such as 30s, got %q", domain.ErrInvalidInput, key, raw)
		}
		return raw, nil
	case key == keyPriority:
		var names []string
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		return names, nil
	case key == keyLLMProvider:
		if !domain.AIProvider(raw).IsValid() {
			return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedType, raw)
		}
		return raw, nil
	case stringKeys[key]:
		return raw, nil
	case strings.HasPrefix(key, pricingPrefix):
		if !strings.HasSuffix(key, ".input_per_mtok") && !strings.HasSuffix(key, ".output_per_mtok") {
			return nil, fmt.Errorf("%w: pricing key %q", domain.ErrInvalidInput, key)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%w: %s wants a non-negative price, got %q", domain.ErrInvalidInput, key, raw)
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrNotFound, key)
}

// Helper methods for reading config with defaults.

func (s *SettingsLoader) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsLoader) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsLoader) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		logger.Warn("Ignoring %s=%q: %v", key, str, err)
		return defaultVal
	}
	return d
}

func (s *SettingsLoader) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(keyLLMProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		logger.Warn("Unknown llm.provider %q, using %s", val, defaultVal)
		return defaultVal
	}
	return provider
}

package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Environment variables that supply API keys when the config file has none.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvHFAPIToken    = "HF_API_TOKEN"
	EnvQdrantAPIKey  = "QDRANT_API_KEY"
	defaultOllamaURL = "http://localhost:11434"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings: defaults, overlaid with the
// config file, with API keys falling back to the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	for _, f := range settingFields(&settings) {
		if _, ok := s.configStore.Get(f.key); !ok {
			continue
		}
		f.value.load(s.configStore, f.key)
	}
	s.applyEnvKeys(&settings)
	return &settings, nil
}

// applyEnvKeys fills empty API keys for providers that need one.
func (s *SettingsService) applyEnvKeys(settings *domain.AppSettings) {
	fill := func(dst *string, provider domain.AIProvider) {
		if *dst == "" {
			*dst = s.envKeyFor(provider)
		}
	}
	fill(&settings.Embedding.APIKey, settings.Embedding.Provider)
	fill(&settings.Reader.APIKey, settings.Reader.Provider)
	fill(&settings.Entity.APIKey, settings.Entity.Provider)
	fill(&settings.LLM.APIKey, settings.LLM.Provider)
	if settings.VectorIndex.APIKey == "" && settings.VectorIndex.Backend == domain.VectorBackendQdrant {
		settings.VectorIndex.APIKey = s.getenv(EnvQdrantAPIKey)
	}
}

func (s *SettingsService) envKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIAPIKey)
	case domain.AIProviderHuggingFace:
		return s.getenv(EnvHFAPIToken)
	default:
		return ""
	}
}

// Save validates and persists application settings. API keys that came
// from the environment are not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	for _, f := range settingFields(settings) {
		if f.secret {
			key := f.value.String()
			if key == "" || s.fromEnv(key) {
				continue
			}
		}
		if err := s.configStore.Set(f.key, f.value.persist()); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

func (s *SettingsService) fromEnv(value string) bool {
	for _, name := range []string{EnvOpenAIAPIKey, EnvHFAPIToken, EnvQdrantAPIKey} {
		if v := s.getenv(name); v != "" && v == value {
			return true
		}
	}
	return false
}

// Set parses value for the dotted key, validates the resulting settings and
// persists the single key.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	var field *settingField
	for _, f := range settingFields(settings) {
		if f.key == key {
			field = &f
			break
		}
	}
	if field == nil {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := field.value.parse(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, field.value.persist()); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Entries lists every setting with its current value. Secrets are masked.
func (s *SettingsService) Entries() ([]driving.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	fields := settingFields(settings)
	entries := make([]driving.SettingEntry, 0, len(fields))
	for _, f := range fields {
		v := f.value.String()
		if f.secret && v != "" {
			v = maskSecret(v)
		}
		_, stored := s.configStore.Get(f.key)
		entries = append(entries, driving.SettingEntry{Key: f.key, Value: v, Default: !stored})
	}
	return entries, nil
}

func maskSecret(v string) string {
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "****" + v[len(v)-4:]
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" && provider == settings.Embedding.Provider {
		apiKey = settings.Embedding.APIKey
	}
	if apiKey == "" {
		apiKey = s.envKeyFor(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = pickModel(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}
	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support summaries", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" && provider == settings.LLM.Provider {
		apiKey = settings.LLM.APIKey
	}
	if apiKey == "" {
		apiKey = s.envKeyFor(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = pickModel(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey
	return s.Save(settings)
}

func pickModel(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom endpoint for Ollama and clears it for providers
// that have a fixed one.
func baseURLFor(provider domain.AIProvider, current string) string {
	switch provider {
	case domain.AIProviderOllama:
		if current == "" {
			return defaultOllamaURL
		}
		return current
	case domain.AIProviderOpenAI:
		return current
	default:
		return ""
	}
}

// Validate checks if current settings can run the answer pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// settingField binds a config key to a field of AppSettings.
type settingField struct {
	key    string
	value  fieldValue
	secret bool
}

// settingFields returns every persisted setting, bound to s.
func settingFields(s *domain.AppSettings) []settingField {
	return []settingField{
		{key: "qa.chunk_size", value: intField{&s.QA.ChunkSize}},
		{key: "qa.top_k", value: intField{&s.QA.TopK}},
		{key: "qa.batch_size", value: intField{&s.QA.BatchSize}},
		{key: "qa.workers", value: intField{&s.QA.Workers}},
		{key: "qa.low_confidence_threshold", value: floatField{&s.QA.LowConfidenceThreshold}},
		{key: "qa.context_similarity_threshold", value: floatField{&s.QA.ContextSimilarityThreshold}},
		{key: "qa.supporting_similarity_threshold", value: floatField{&s.QA.SupportingSimilarityThreshold}},
		{key: "qa.injection_policy", value: enumField[domain.InjectionPolicy]{&s.QA.InjectionPolicy, domain.InjectionPolicy.IsValid}},
		{key: "qa.oracle_timeout_seconds", value: durationField{&s.QA.OracleTimeout, time.Second}},
		{key: "qa.max_question_chars", value: intField{&s.QA.MaxQuestionChars}},
		{key: "qa.max_context_chars", value: intField{&s.QA.MaxContextChars}},

		{key: "embedding.provider", value: enumField[domain.AIProvider]{&s.Embedding.Provider, domain.AIProvider.IsValid}},
		{key: "embedding.model", value: stringField{&s.Embedding.Model}},
		{key: "embedding.base_url", value: stringField{&s.Embedding.BaseURL}},
		{key: "embedding.api_key", value: stringField{&s.Embedding.APIKey}, secret: true},
		{key: "embedding.dimensions", value: intField{&s.Embedding.Dimensions}},

		{key: "reader.provider", value: enumField[domain.AIProvider]{&s.Reader.Provider, domain.AIProvider.IsValid}},
		{key: "reader.model", value: stringField{&s.Reader.Model}},
		{key: "reader.base_url", value: stringField{&s.Reader.BaseURL}},
		{key: "reader.api_key", value: stringField{&s.Reader.APIKey}, secret: true},

		{key: "entity.provider", value: enumField[domain.AIProvider]{&s.Entity.Provider, domain.AIProvider.IsValid}},
		{key: "entity.model", value: stringField{&s.Entity.Model}},
		{key: "entity.base_url", value: stringField{&s.Entity.BaseURL}},
		{key: "entity.api_key", value: stringField{&s.Entity.APIKey}, secret: true},

		{key: "llm.provider", value: enumField[domain.AIProvider]{&s.LLM.Provider, validLLMProvider}},
		{key: "llm.model", value: stringField{&s.LLM.Model}},
		{key: "llm.base_url", value: stringField{&s.LLM.BaseURL}},
		{key: "llm.api_key", value: stringField{&s.LLM.APIKey}, secret: true},

		{key: "vector_index.provider", value: enumField[domain.VectorBackend]{&s.VectorIndex.Backend, domain.VectorBackend.IsValid}},
		{key: "vector_index.url", value: stringField{&s.VectorIndex.URL}},
		{key: "vector_index.collection", value: stringField{&s.VectorIndex.Collection}},
		{key: "vector_index.api_key", value: stringField{&s.VectorIndex.APIKey}, secret: true},
		{key: "vector_index.hnsw_m", value: intField{&s.VectorIndex.HNSWM}},
		{key: "vector_index.hnsw_ef_construction", value: intField{&s.VectorIndex.HNSWEfConstruction}},
		{key: "vector_index.hnsw_ef_search", value: intField{&s.VectorIndex.HNSWEfSearch}},

		{key: "cache.provider", value: enumField[domain.CacheProvider]{&s.Cache.Provider, domain.CacheProvider.IsValid}},
		{key: "cache.path", value: stringField{&s.Cache.Path}},
		{key: "cache.url", value: stringField{&s.Cache.URL}},
		{key: "cache.ttl_minutes", value: durationField{&s.Cache.TTL, time.Minute}},

		{key: "server.listen", value: stringField{&s.Server.Listen}},
		{key: "server.max_upload_mb", value: intField{&s.Server.MaxUploadMB}},
		{key: "server.rate_per_second", value: floatField{&s.Server.RatePerSecond}},
		{key: "server.rate_burst", value: intField{&s.Server.RateBurst}},
		{key: "server.log_file", value: stringField{&s.Server.LogFile}},
	}
}

// validLLMProvider accepts the empty provider, which disables the LLM.
func validLLMProvider(p domain.AIProvider) bool {
	return p == "" || slices.Contains(domain.AllLLMProviders(), p)
}

// fieldValue reads, parses and writes one settings field.
type fieldValue interface {
	load(store driven.ConfigStore, key string)
	parse(raw string) error
	persist() any
	String() string
}

type intField struct{ p *int }

func (f intField) load(store driven.ConfigStore, key string) {
	if v := store.GetInt(key); v != 0 {
		*f.p = v
	}
}

func (f intField) parse(raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("not an integer: %q", raw)
	}
	*f.p = v
	return nil
}

func (f intField) persist() any   { return int64(*f.p) }
func (f intField) String() string { return strconv.Itoa(*f.p) }

type floatField struct{ p *float64 }

func (f floatField) load(store driven.ConfigStore, key string) {
	*f.p = store.GetFloat(key)
}

func (f floatField) parse(raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", raw)
	}
	*f.p = v
	return nil
}

func (f floatField) persist() any   { return *f.p }
func (f floatField) String() string { return strconv.FormatFloat(*f.p, 'g', -1, 64) }

type stringField struct{ p *string }

func (f stringField) load(store driven.ConfigStore, key string) {
	*f.p = store.GetString(key)
}

func (f stringField) parse(raw string) error {
	*f.p = raw
	return nil
}

func (f stringField) persist() any   { return *f.p }
func (f stringField) String() string { return *f.p }

// durationField stores a duration as a whole number of units.
type durationField struct {
	p    *time.Duration
	unit time.Duration
}

func (f durationField) load(store driven.ConfigStore, key string) {
	if v := store.GetInt(key); v > 0 {
		*f.p = time.Duration(v) * f.unit
	}
}

func (f durationField) parse(raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fmt.Errorf("not a positive integer: %q", raw)
	}
	*f.p = time.Duration(v) * f.unit
	return nil
}

func (f durationField) persist() any   { return int64(*f.p / f.unit) }
func (f durationField) String() string { return strconv.FormatInt(int64(*f.p/f.unit), 10) }

// enumField is a string-typed setting with a fixed set of values.
// Unknown stored values keep the default.
type enumField[T ~string] struct {
	p     *T
	valid func(T) bool
}

func (f enumField[T]) load(store driven.ConfigStore, key string) {
	if v := T(store.GetString(key)); f.valid(v) {
		*f.p = v
	}
}

func (f enumField[T]) parse(raw string) error {
	v := T(strings.ToLower(raw))
	if !f.valid(v) {
		return fmt.Errorf("unknown value %q", raw)
	}
	*f.p = v
	return nil
}

func (f enumField[T]) persist() any   { return string(*f.p) }
func (f enumField[T]) String() string { return string(*f.p) }

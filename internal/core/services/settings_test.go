package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/config/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func newTestSettings(values map[string]any, env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore(values)
	service := NewSettingsService(store, nil)
	service.getenv = func(k string) string { return env[k] }
	return service, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettings(nil, nil)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, _ := newTestSettings(map[string]any{
		"qa.top_k":                    int64(5),
		"qa.low_confidence_threshold": 0.45,
		"qa.oracle_timeout_seconds":   int64(12),
		"qa.injection_policy":         "warn",
		"embedding.provider":          "openai",
		"embedding.model":             "text-embedding-3-large",
		"embedding.api_key":           "sk-from-file",
		"vector_index.provider":       "hnsw",
		"cache.ttl_minutes":           int64(90),
	}, nil)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, 5, settings.QA.TopK)
	assert.InDelta(t, 0.45, settings.QA.LowConfidenceThreshold, 1e-9)
	assert.Equal(t, 12*time.Second, settings.QA.OracleTimeout)
	assert.Equal(t, domain.InjectionPolicyWarn, settings.QA.InjectionPolicy)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-from-file", settings.Embedding.APIKey)
	assert.Equal(t, domain.VectorBackendHNSW, settings.VectorIndex.Backend)
	assert.Equal(t, 90*time.Minute, settings.Cache.TTL)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	service, _ := newTestSettings(map[string]any{
		"embedding.provider":    "invalid_provider",
		"vector_index.provider": "faiss",
		"qa.top_k":              "three",
	}, nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.VectorIndex.Backend, settings.VectorIndex.Backend)
	assert.Equal(t, defaults.QA.TopK, settings.QA.TopK)
}

func TestSettingsService_Get_APIKeysFromEnvironment(t *testing.T) {
	service, _ := newTestSettings(map[string]any{
		"embedding.provider":    "openai",
		"reader.provider":       "huggingface",
		"vector_index.provider": "qdrant",
	}, map[string]string{
		EnvOpenAIAPIKey: "sk-env",
		EnvHFAPIToken:   "hf-env",
		EnvQdrantAPIKey: "qd-env",
	})

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "hf-env", settings.Reader.APIKey)
	assert.Empty(t, settings.Entity.APIKey, "local entity extractor needs no key")
	assert.Equal(t, "qd-env", settings.VectorIndex.APIKey)
}

func TestSettingsService_Save_SkipsEnvironmentKeys(t *testing.T) {
	service, store := newTestSettings(nil, map[string]string{EnvOpenAIAPIKey: "sk-env"})

	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.AIProviderOpenAI
	settings.Embedding.APIKey = "sk-env"
	settings.LLM.Provider = domain.AIProviderOpenAI
	settings.LLM.APIKey = "sk-typed"
	settings.QA.TopK = 7
	require.NoError(t, service.Save(&settings))

	_, stored := store.Get("embedding.api_key")
	assert.False(t, stored)
	assert.Equal(t, "sk-typed", store.GetString("llm.api_key"))
	assert.Equal(t, 7, store.GetInt("qa.top_k"))
	assert.Equal(t, "openai", store.GetString("embedding.provider"))
}

func TestSettingsService_Save_Validates(t *testing.T) {
	service, store := newTestSettings(nil, nil)

	settings := domain.DefaultAppSettings()
	settings.QA.TopK = 0
	require.ErrorIs(t, service.Save(&settings), domain.ErrInvalidInput)

	_, stored := store.Get("qa.top_k")
	assert.False(t, stored)
	assert.ErrorIs(t, service.Save(nil), domain.ErrInvalidInput)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
		check   func(t *testing.T, s *domain.AppSettings)
	}{
		{
			name: "int", key: "qa.top_k", value: "4",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 4, s.QA.TopK) },
		},
		{
			name: "float", key: "qa.supporting_similarity_threshold", value: "0.55",
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.InDelta(t, 0.55, s.QA.SupportingSimilarityThreshold, 1e-9)
			},
		},
		{
			name: "enum is case-insensitive", key: "cache.provider", value: "SQLite",
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, domain.CacheProviderSQLite, s.Cache.Provider)
			},
		},
		{
			name: "duration", key: "qa.oracle_timeout_seconds", value: "5",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 5*time.Second, s.QA.OracleTimeout) },
		},
		{
			name: "empty llm provider disables it", key: "llm.provider", value: "",
			check: func(t *testing.T, s *domain.AppSettings) { assert.False(t, s.LLM.IsConfigured()) },
		},
		{name: "unknown key", key: "search.mode", value: "hybrid", wantErr: true},
		{name: "bad int", key: "qa.top_k", value: "many", wantErr: true},
		{name: "bad enum", key: "vector_index.provider", value: "faiss", wantErr: true},
		{name: "fails validation", key: "qa.top_k", value: "0", wantErr: true},
		{name: "provider without key", key: "reader.provider", value: "huggingface", wantErr: true},
		{name: "llm provider without llm support", key: "llm.provider", value: "huggingface", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestSettings(nil, nil)

			err := service.Set(tt.key, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				_, stored := store.Get(tt.key)
				assert.False(t, stored)
				return
			}
			require.NoError(t, err)
			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsService_Entries(t *testing.T) {
	service, _ := newTestSettings(map[string]any{
		"llm.provider": "openai",
		"llm.api_key":  "sk-1234567890abcdef",
	}, nil)

	entries, err := service.Entries()
	require.NoError(t, err)

	byKey := make(map[string]string)
	defaults := make(map[string]bool)
	for _, e := range entries {
		byKey[e.Key] = e.Value
		defaults[e.Key] = e.Default
	}
	assert.Equal(t, "sk-1****cdef", byKey["llm.api_key"])
	assert.Equal(t, "3", byKey["qa.top_k"])
	assert.Equal(t, "30", byKey["qa.oracle_timeout_seconds"])
	assert.True(t, defaults["qa.top_k"])
	assert.False(t, defaults["llm.provider"])
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("ollama gets default url and dimensions", func(t *testing.T) {
		service, _ := newTestSettings(nil, nil)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "nomic-embed-text", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
		assert.Equal(t, 768, settings.Embedding.Dimensions)
	})

	t.Run("openai default model", func(t *testing.T) {
		service, _ := newTestSettings(nil, nil)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
		assert.Equal(t, 1536, settings.Embedding.Dimensions)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	})

	t.Run("errors", func(t *testing.T) {
		service, _ := newTestSettings(nil, nil)
		assert.ErrorIs(t, service.SetEmbeddingProvider(domain.AIProviderHuggingFace, "", "hf"), domain.ErrInvalidInput)
		assert.ErrorIs(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""), domain.ErrInvalidInput)
	})
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service, _ := newTestSettings(nil, map[string]string{EnvOpenAIAPIKey: "sk-env"})

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", ""))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.True(t, settings.LLM.IsConfigured())
	assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)

	assert.ErrorIs(t, service.SetLLMProvider(domain.AIProviderLocal, "", ""), domain.ErrInvalidInput)
}

func TestSettingsService_ValidateAndDefaults(t *testing.T) {
	service, _ := newTestSettings(map[string]any{"reader.provider": "huggingface"}, nil)
	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)

	service, _ = newTestSettings(nil, nil)
	assert.NoError(t, service.Validate())
	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.NoError(t, service.ValidateLLMConfig())
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

// Package ai builds the model oracles, vector index and embedding cache
// selected in the application settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	memcache "github.com/custodia-labs/docqa/internal/adapters/driven/cache/memory"
	rediscache "github.com/custodia-labs/docqa/internal/adapters/driven/cache/redis"
	sqlitecache "github.com/custodia-labs/docqa/internal/adapters/driven/cache/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/entity/heuristic"
	hfentity "github.com/custodia-labs/docqa/internal/adapters/driven/entity/huggingface"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	hfreader "github.com/custodia-labs/docqa/internal/adapters/driven/reader/huggingface"
	"github.com/custodia-labs/docqa/internal/adapters/driven/reader/lexical"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/hnsw"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Options controls Init.
type Options struct {
	// ConfigDir is the docqa home (prompts, default cache path).
	ConfigDir string

	// Validate pings remote oracles before returning them.
	Validate bool
}

// InitResult holds every adapter the services need.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	Reader           driven.AnswerOracle
	Entities         driven.EntityExtractor
	LLMService       driven.LLMService // nil when no LLM is configured
	VectorIndex      driven.VectorIndex
	Cache            driven.EmbeddingCache // nil when caching is disabled
	PromptStore      driven.PromptStore
	Warnings         []string // Non-fatal issues that caused fallback.
	FellBack         bool     // True if an optional component fell back or was dropped.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	closers := []interface{ Close() error }{}
	if r.EmbeddingService != nil {
		closers = append(closers, r.EmbeddingService)
	}
	if r.Reader != nil {
		closers = append(closers, r.Reader)
	}
	if r.Entities != nil {
		closers = append(closers, r.Entities)
	}
	if r.LLMService != nil {
		closers = append(closers, r.LLMService)
	}
	if r.VectorIndex != nil {
		closers = append(closers, r.VectorIndex)
	}
	if r.Cache != nil {
		closers = append(closers, r.Cache)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("close %T: %v", c, err)
		}
	}
}

func (r *InitResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
	r.FellBack = true
}

// Init creates every adapter for settings. The embedding, reader and entity
// oracles are required; the LLM, cache and remote vector index degrade to
// warnings.
func Init(ctx context.Context, settings *domain.AppSettings, opts Options) (*InitResult, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}
	res := &InitResult{}
	ok := false
	defer func() {
		if !ok {
			res.Close()
		}
	}()

	var err error
	if res.EmbeddingService, err = CreateEmbeddingService(&settings.Embedding); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if res.Reader, err = CreateReader(&settings.Reader); err != nil {
		return nil, domain.NewOracleError("reader", err)
	}
	if res.Entities, err = CreateEntityExtractor(&settings.Entity); err != nil {
		return nil, domain.NewOracleError("entity", err)
	}

	if opts.Validate {
		if err := ping(ctx, res.EmbeddingService); err != nil {
			return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings show' to check",
				domain.ErrEmbeddingUnavailable, err)
		}
		if !settings.Reader.Provider.IsLocal() {
			if err := ping(ctx, res.Reader); err != nil {
				return nil, domain.NewOracleError("reader", err)
			}
		}
		if !settings.Entity.Provider.IsLocal() {
			if err := ping(ctx, res.Entities); err != nil {
				return nil, domain.NewOracleError("entity", err)
			}
		}
	}

	promptDir := ""
	if opts.ConfigDir != "" {
		promptDir = filepath.Join(opts.ConfigDir, "prompts")
	}
	if res.PromptStore, err = file.NewPromptStore(promptDir); err != nil {
		res.warn("prompt store unavailable, using built-in prompts: %v", err)
		res.PromptStore = nil
	}

	if settings.LLM.IsConfigured() {
		llm, err := CreateLLMService(&settings.LLM)
		if err == nil && opts.Validate {
			if err = ping(ctx, llm); err != nil {
				llm.Close()
			}
		}
		if err != nil {
			res.warn("LLM unavailable, summaries use the local summariser: %v", err)
		} else {
			if aware, ok := llm.(driven.PromptStoreAware); ok && res.PromptStore != nil {
				aware.SetPromptStore(res.PromptStore)
			}
			res.LLMService = llm
		}
	}

	res.VectorIndex, err = CreateVectorIndex(ctx, &settings.VectorIndex, opts.Validate)
	if err != nil {
		res.warn("vector index %q unavailable, using flat index: %v", settings.VectorIndex.Backend, err)
		res.VectorIndex = flat.New()
	}

	res.Cache, err = CreateCache(ctx, &settings.Cache, opts.ConfigDir)
	if err != nil {
		res.warn("embedding cache %q unavailable, caching disabled: %v", settings.Cache.Provider, err)
		res.Cache = nil
	}

	ok = true
	return res, nil
}

func ping(ctx context.Context, p interface{ Ping(context.Context) error }) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, errors.New("embedding provider is not configured")
	}

	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = settings.Dimensions
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return hashing.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateReader creates the extractive QA oracle for settings.
func CreateReader(settings *domain.ModelSettings) (driven.AnswerOracle, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, errors.New("reader provider is not configured")
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return lexical.New(), nil

	case domain.AIProviderHuggingFace:
		r, err := hfreader.NewReader(hfreader.Config{
			APIToken: settings.APIKey,
			BaseURL:  settings.BaseURL,
			Model:    settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unsupported reader provider: %s", settings.Provider)
	}
}

// CreateEntityExtractor creates the NER oracle for settings.
func CreateEntityExtractor(settings *domain.ModelSettings) (driven.EntityExtractor, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, errors.New("entity provider is not configured")
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return heuristic.New(), nil

	case domain.AIProviderHuggingFace:
		e, err := hfentity.NewExtractor(hfentity.Config{
			APIToken: settings.APIKey,
			BaseURL:  settings.BaseURL,
			Model:    settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unsupported entity provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM for settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		llm, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return llm, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateVectorIndex creates the vector index backend for settings.
func CreateVectorIndex(ctx context.Context, settings *domain.VectorIndexSettings, validate bool) (driven.VectorIndex, error) {
	if settings == nil {
		return flat.New(), nil
	}

	switch settings.Backend {
	case domain.VectorBackendFlat, "":
		return flat.New(), nil

	case domain.VectorBackendHNSW:
		return hnsw.New(hnsw.NewConfig(settings.HNSWM, settings.HNSWEfConstruction, settings.HNSWEfSearch)), nil

	case domain.VectorBackendQdrant:
		idx, err := qdrant.Dial(qdrant.Config{
			Addr:       settings.URL,
			APIKey:     settings.APIKey,
			Collection: settings.Collection,
		})
		if err != nil {
			return nil, err
		}
		if validate {
			if err := ping(ctx, idx); err != nil {
				idx.Close()
				return nil, err
			}
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", settings.Backend)
	}
}

// CreateCache creates the embedding cache for settings.
// Returns nil when caching is disabled.
func CreateCache(ctx context.Context, settings *domain.CacheSettings, configDir string) (driven.EmbeddingCache, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Provider {
	case domain.CacheProviderNone, "":
		return nil, nil

	case domain.CacheProviderMemory:
		return memcache.New(settings.TTL), nil

	case domain.CacheProviderSQLite:
		path := settings.Path
		if path == "" && configDir != "" {
			path = filepath.Join(configDir, "cache", "embeddings.db")
		}
		store, err := sqlitecache.NewStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case domain.CacheProviderRedis:
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		c, err := rediscache.Dial(ctx, settings.URL, settings.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", settings.Provider)
	}
}

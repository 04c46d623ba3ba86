package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies the backend behind one of the model oracles.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal is the built-in in-process implementation.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderHuggingFace is the Hugging Face Inference API.
	AIProviderHuggingFace AIProvider = "huggingface"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderHuggingFace:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderHuggingFace
}

// IsLocal returns true if this provider runs on the user's machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderLocal || p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Built-in (in-process)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderHuggingFace:
		return "Hugging Face Inference (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderLocal, AIProviderOllama, AIProviderOpenAI}
}

// AllReaderProviders returns providers that support extractive QA.
func AllReaderProviders() []AIProvider {
	return []AIProvider{AIProviderLocal, AIProviderHuggingFace}
}

// AllEntityProviders returns providers that support named-entity extraction.
func AllEntityProviders() []AIProvider {
	return []AIProvider{AIProviderLocal, AIProviderHuggingFace}
}

// AllLLMProviders returns providers that support summarisation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "feature-hash-v1",
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultReaderModels returns default models for each reader provider.
func DefaultReaderModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:       "lexical-span-v1",
		AIProviderHuggingFace: "deepset/roberta-base-squad2",
	}
}

// DefaultEntityModels returns default models for each entity provider.
func DefaultEntityModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:       "capitalised-span-v1",
		AIProviderHuggingFace: "dslim/bert-base-NER",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Built-in
		"feature-hash-v1": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// InjectionPolicy decides what happens when a question matches the denylist.
type InjectionPolicy string

// Injection policies.
const (
	// InjectionPolicyReject fails the request with ErrSuspectedInjection.
	InjectionPolicyReject InjectionPolicy = "reject"

	// InjectionPolicyWarn lets the request through with a warning attached.
	InjectionPolicyWarn InjectionPolicy = "warn"
)

// IsValid returns true if the policy is recognised.
func (p InjectionPolicy) IsValid() bool {
	return p == InjectionPolicyReject || p == InjectionPolicyWarn
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendFlat is exact brute-force L2 search in memory.
	VectorBackendFlat VectorBackend = "flat"

	// VectorBackendHNSW is an approximate HNSW graph in memory.
	VectorBackendHNSW VectorBackend = "hnsw"

	// VectorBackendQdrant is a remote Qdrant collection.
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendFlat, VectorBackendHNSW, VectorBackendQdrant:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendFlat:
		return "Flat (exact, in memory)"
	case VectorBackendHNSW:
		return "HNSW (approximate, in memory)"
	case VectorBackendQdrant:
		return "Qdrant (remote)"
	default:
		return unknownDescription
	}
}

// CacheProvider selects where computed embeddings are cached.
type CacheProvider string

// Available cache providers.
const (
	CacheProviderNone   CacheProvider = "none"
	CacheProviderMemory CacheProvider = "memory"
	CacheProviderSQLite CacheProvider = "sqlite"
	CacheProviderRedis  CacheProvider = "redis"
)

// IsValid returns true if the cache provider is recognised.
func (c CacheProvider) IsValid() bool {
	switch c {
	case CacheProviderNone, CacheProviderMemory, CacheProviderSQLite, CacheProviderRedis:
		return true
	default:
		return false
	}
}

// QASettings holds the answer pipeline tunables.
type QASettings struct {
	// ChunkSize is the maximum number of words per chunk.
	ChunkSize int

	// TopK is the number of passages retrieved per question.
	TopK int

	// BatchSize is the number of chunks embedded per oracle call.
	BatchSize int

	// Workers bounds how many embedding batches run at once.
	Workers int

	// LowConfidenceThreshold attaches a warning below this reader score.
	LowConfidenceThreshold float64

	// ContextSimilarityThreshold is the minimum answer/context cosine similarity.
	ContextSimilarityThreshold float64

	// SupportingSimilarityThreshold is the minimum answer/supporting-span cosine similarity.
	SupportingSimilarityThreshold float64

	// InjectionPolicy decides whether denylist matches reject or warn.
	InjectionPolicy InjectionPolicy

	// OracleTimeout bounds every single oracle call.
	OracleTimeout time.Duration

	// MaxQuestionChars is the longest accepted question.
	MaxQuestionChars int

	// MaxContextChars is the longest accepted context.
	MaxContextChars int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the expected embedding vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ModelSettings configures the reader or entity oracle.
type ModelSettings struct {
	// Provider is the oracle backend.
	Provider AIProvider

	// Model is the remote model identifier.
	Model string

	// BaseURL overrides the inference endpoint.
	BaseURL string

	// APIKey is the inference API token.
	APIKey string
}

// IsConfigured returns true if the oracle is set up.
func (m ModelSettings) IsConfigured() bool {
	if !m.Provider.IsValid() {
		return false
	}
	if m.Provider.RequiresAPIKey() && m.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
// The LLM is optional and only used for summaries.
type LLMSettings struct {
	// Provider is the LLM service provider. Empty disables the LLM.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if l.Provider != AIProviderOllama && l.Provider != AIProviderOpenAI {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the index implementation.
	Backend VectorBackend

	// URL is the Qdrant gRPC address (host:port).
	URL string

	// Collection is the Qdrant collection name prefix.
	Collection string

	// APIKey authenticates against Qdrant Cloud.
	APIKey string

	// HNSWM is the maximum connections per node per layer.
	HNSWM int

	// HNSWEfConstruction is the beam width during graph construction.
	HNSWEfConstruction int

	// HNSWEfSearch is the beam width during search.
	HNSWEfSearch int
}

// CacheSettings holds embedding cache configuration.
type CacheSettings struct {
	// Provider selects the cache backend.
	Provider CacheProvider

	// Path is the SQLite database file.
	Path string

	// URL is the Redis connection URL.
	URL string

	// TTL is how long cached embeddings live (memory and redis).
	TTL time.Duration
}

// ServerSettings holds HTTP surface configuration.
type ServerSettings struct {
	// Listen is the address the HTTP server binds.
	Listen string

	// MaxUploadMB is the request body limit in megabytes.
	MaxUploadMB int

	// RatePerSecond is the sustained per-client request rate.
	RatePerSecond float64

	// RateBurst is the per-client burst size.
	RateBurst int

	// LogFile enables the rotated JSON log file when set.
	LogFile string
}

// AppSettings holds all application settings.
type AppSettings struct {
	QA          QASettings
	Embedding   EmbeddingSettings
	Reader      ModelSettings
	Entity      ModelSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Cache       CacheSettings
	Server      ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Every oracle defaults to the built-in implementation so the pipeline
// works offline; the LLM is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		QA: QASettings{
			ChunkSize:                     200,
			TopK:                          3,
			BatchSize:                     8,
			Workers:                       4,
			LowConfidenceThreshold:        0.3,
			ContextSimilarityThreshold:    0.1,
			SupportingSimilarityThreshold: 0.3,
			InjectionPolicy:               InjectionPolicyReject,
			OracleTimeout:                 30 * time.Second,
			MaxQuestionChars:              1000,
			MaxContextChars:               100000,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Model:      "feature-hash-v1",
			Dimensions: 384,
		},
		Reader: ModelSettings{
			Provider: AIProviderLocal,
			Model:    "lexical-span-v1",
		},
		Entity: ModelSettings{
			Provider: AIProviderLocal,
			Model:    "capitalised-span-v1",
		},
		LLM: LLMSettings{},
		VectorIndex: VectorIndexSettings{
			Backend:            VectorBackendFlat,
			URL:                "localhost:6334",
			Collection:         "docqa",
			HNSWM:              16,
			HNSWEfConstruction: 200,
			HNSWEfSearch:       100,
		},
		Cache: CacheSettings{
			Provider: CacheProviderNone,
			TTL:      24 * time.Hour,
		},
		Server: ServerSettings{
			Listen:        ":8080",
			MaxUploadMB:   16,
			RatePerSecond: 5,
			RateBurst:     10,
		},
	}
}

// Validate checks the settings for values the pipeline cannot run with.
func (s AppSettings) Validate() error {
	qa := s.QA
	switch {
	case qa.ChunkSize <= 0:
		return fmt.Errorf("%w: qa.chunk_size must be positive", ErrInvalidInput)
	case qa.TopK <= 0:
		return fmt.Errorf("%w: qa.top_k must be positive", ErrInvalidInput)
	case qa.BatchSize <= 0:
		return fmt.Errorf("%w: qa.batch_size must be positive", ErrInvalidInput)
	case qa.Workers <= 0:
		return fmt.Errorf("%w: qa.workers must be positive", ErrInvalidInput)
	case qa.LowConfidenceThreshold < 0 || qa.LowConfidenceThreshold > 1:
		return fmt.Errorf("%w: qa.low_confidence_threshold must be within [0, 1]", ErrInvalidInput)
	case !qa.InjectionPolicy.IsValid():
		return fmt.Errorf("%w: unknown injection policy %q", ErrInvalidInput, qa.InjectionPolicy)
	case qa.OracleTimeout <= 0:
		return fmt.Errorf("%w: qa.oracle_timeout_seconds must be positive", ErrInvalidInput)
	}
	if !s.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive", ErrInvalidInput)
	}
	if !s.Reader.IsConfigured() {
		return fmt.Errorf("%w: reader provider %q is not configured", ErrInvalidInput, s.Reader.Provider)
	}
	if !s.Entity.IsConfigured() {
		return fmt.Errorf("%w: entity provider %q is not configured", ErrInvalidInput, s.Entity.Provider)
	}
	if !s.VectorIndex.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidInput, s.VectorIndex.Backend)
	}
	if !s.Cache.Provider.IsValid() {
		return fmt.Errorf("%w: unknown cache provider %q", ErrInvalidInput, s.Cache.Provider)
	}
	return nil
}

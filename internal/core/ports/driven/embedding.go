// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The same instance embeds chunks at index time, questions at retrieval
// time, and answers during consistency checks, so all vectors share one space.
//
// Implementations include:
//   - Built-in feature hashing (deterministic, offline)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (all-minilm, nomic-embed-text)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// The i-th vector corresponds to the i-th text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache stores embeddings keyed by model and text so rebuilding an
// index for unchanged content skips the oracle.
type EmbeddingCache interface {
	// GetMany returns cached vectors for texts; missing entries are nil.
	GetMany(ctx context.Context, model string, texts []string) ([][]float32, error)

	// PutMany stores vectors for texts.
	PutMany(ctx context.Context, model string, texts []string, vectors [][]float32) error

	// Close releases resources.
	Close() error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/vectormath"
)

// Index build defaults.
const (
	DefaultBatchSize     = 8
	DefaultWorkers       = 4
	DefaultOracleTimeout = 30 * time.Second
)

// IndexConfig tunes how the embedding index is built.
type IndexConfig struct {
	// BatchSize is the number of chunks per EmbedBatch call.
	BatchSize int

	// Workers bounds the number of batches embedded concurrently.
	Workers int

	// OracleTimeout bounds each embedding call.
	OracleTimeout time.Duration
}

func (c IndexConfig) withDefaults() IndexConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.OracleTimeout <= 0 {
		c.OracleTimeout = DefaultOracleTimeout
	}
	return c
}

// EmbeddingIndex embeds chunks and keeps them searchable through a
// VectorIndex. Builds are serialised; searches never block on a build.
type EmbeddingIndex struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	cache    driven.EmbeddingCache
	cfg      IndexConfig

	buildMu sync.Mutex

	mu    sync.RWMutex
	model string
}

// NewEmbeddingIndex creates an index over the given embedder and vector store.
func NewEmbeddingIndex(embedder driven.EmbeddingService, index driven.VectorIndex, cfg IndexConfig) *EmbeddingIndex {
	return &EmbeddingIndex{
		embedder: embedder,
		index:    index,
		cfg:      cfg.withDefaults(),
	}
}

// SetCache sets the optional embedding cache.
func (x *EmbeddingIndex) SetCache(cache driven.EmbeddingCache) {
	x.cache = cache
}

// Build embeds every chunk and replaces the indexed set. On failure the
// previous index stays searchable.
func (x *EmbeddingIndex) Build(ctx context.Context, chunks []domain.Chunk) error {
	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	if x.embedder == nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexBuild, domain.ErrEmbeddingUnavailable)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks to index", domain.ErrIndexBuild)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	start := time.Now()
	vectors, err := x.embedAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexBuild, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrIndexBuild, len(vectors), len(chunks))
	}

	dims := x.embedder.Dimensions()
	entries := make([]driven.IndexEntry, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) == 0 || (dims > 0 && len(vectors[i]) != dims) {
			return fmt.Errorf("%w: %w: chunk %d has %d dimensions, want %d",
				domain.ErrIndexBuild, domain.ErrDimensionMismatch, i, len(vectors[i]), dims)
		}
		entries[i] = driven.IndexEntry{
			ChunkID:  c.ID,
			Position: c.Position,
			Content:  c.Content,
			Vector:   vectormath.Normalize(vectors[i]),
		}
	}

	if err := x.index.Replace(ctx, entries); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexBuild, err)
	}

	x.mu.Lock()
	x.model = x.embedder.ModelName()
	x.mu.Unlock()

	logger.Debug("Indexed %d chunks with %s in %v", len(entries), x.embedder.ModelName(), time.Since(start))
	return nil
}

// embedAll returns one vector per text in order, consulting the cache first.
func (x *EmbeddingIndex) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	model := x.embedder.ModelName()
	vectors := make([][]float32, len(texts))

	if x.cache != nil {
		cached, err := x.cache.GetMany(ctx, model, texts)
		if err != nil {
			logger.Warn("Embedding cache lookup failed, embedding everything: %v", err)
		} else if len(cached) == len(texts) {
			copy(vectors, cached)
		}
	}

	var missing []int
	for i, v := range vectors {
		if v == nil {
			missing = append(missing, i)
		}
	}
	logger.Debug("Embedding %d of %d chunks (%d cached)", len(missing), len(texts), len(texts)-len(missing))
	if len(missing) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.cfg.Workers)
	for lo := 0; lo < len(missing); lo += x.cfg.BatchSize {
		batch := missing[lo:min(lo+x.cfg.BatchSize, len(missing))]
		g.Go(func() error {
			batchTexts := make([]string, len(batch))
			for j, idx := range batch {
				batchTexts[j] = texts[idx]
			}

			callCtx, cancel := context.WithTimeout(gctx, x.cfg.OracleTimeout)
			defer cancel()
			out, err := x.embedder.EmbedBatch(callCtx, batchTexts)
			if err != nil {
				return domain.NewOracleError("embedding", err)
			}
			if len(out) != len(batch) {
				return fmt.Errorf("embedding batch returned %d vectors for %d texts", len(out), len(batch))
			}
			// Each batch writes a disjoint set of indices.
			for j, idx := range batch {
				vectors[idx] = out[j]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if x.cache != nil {
		fresh := make([]string, len(missing))
		freshVecs := make([][]float32, len(missing))
		for j, idx := range missing {
			fresh[j] = texts[idx]
			freshVecs[j] = vectors[idx]
		}
		if err := x.cache.PutMany(ctx, model, fresh, freshVecs); err != nil {
			logger.Warn("Embedding cache store failed: %v", err)
		}
	}
	return vectors, nil
}

// Search returns up to k indexed chunks nearest to query, ascending by
// distance. The query must already be normalised.
func (x *EmbeddingIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if x.index.Size() == 0 {
		return nil, domain.ErrEmptyIndex
	}
	hits, err := x.index.Search(ctx, query, k)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyIndex) || errors.Is(err, domain.ErrDimensionMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

// Size returns the number of indexed chunks.
func (x *EmbeddingIndex) Size() int {
	return x.index.Size()
}

// Model returns the embedding model the active index was built with.
// Empty until the first successful build.
func (x *EmbeddingIndex) Model() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.model
}

// Embedder returns the embedding service shared by indexing and retrieval.
func (x *EmbeddingIndex) Embedder() driven.EmbeddingService {
	return x.embedder
}

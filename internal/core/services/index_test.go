package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/vectormath"
)

func TestEmbeddingIndex_OwnVectorFirst(t *testing.T) {
	embedder := hashing.NewEmbeddingService(0)
	index := NewEmbeddingIndex(embedder, flat.New(), IndexConfig{BatchSize: 2, Workers: 3})

	chunks := chunksOf(
		"Paris is the capital of France.",
		"The Rhine flows through Basel and Strasbourg.",
		"Photosynthesis converts light into chemical energy.",
		"Copper conducts electricity well.",
		"Volcanoes release ash and lava.",
	)
	require.NoError(t, index.Build(context.Background(), chunks))
	assert.Equal(t, len(chunks), index.Size())
	assert.Equal(t, hashing.ModelName, index.Model())

	for _, c := range chunks {
		vec, err := embedder.Embed(context.Background(), c.Content)
		require.NoError(t, err)

		hits, err := index.Search(context.Background(), vectormath.Normalize(vec), 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, c.ID, hits[0].ChunkID)
		assert.InDelta(t, 0, hits[0].Distance, 1e-4)
		for i := 1; i < len(hits); i++ {
			assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
		}
	}
}

func TestEmbeddingIndex_BatchesKeepChunkOrder(t *testing.T) {
	embedder := newMockEmbedder(4)
	embedder.embedFn = func(text string) []float32 {
		var n float32
		_, _ = fmt.Sscanf(text, "text %f", &n)
		return []float32{n, 1, 0, 0}
	}
	vi := &mockVectorIndex{}
	index := NewEmbeddingIndex(embedder, vi, IndexConfig{BatchSize: 3, Workers: 4})

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i+1)
	}
	require.NoError(t, index.Build(context.Background(), chunksOf(texts...)))

	assert.Equal(t, 7, embedder.callCount())
	require.Len(t, vi.entries, 20)
	for i, e := range vi.entries {
		assert.Equal(t, fmt.Sprintf("chunk-%d", i), e.ChunkID)
		assert.Equal(t, i, e.Position)
		want := vectormath.Normalize([]float32{float32(i + 1), 1, 0, 0})
		assert.InDeltaSlice(t, want, e.Vector, 1e-6)
	}
}

func TestEmbeddingIndex_VectorsAreNormalised(t *testing.T) {
	embedder := newMockEmbedder(2)
	embedder.embedFn = func(string) []float32 { return []float32{3, 4} }
	vi := &mockVectorIndex{}
	index := NewEmbeddingIndex(embedder, vi, IndexConfig{})

	require.NoError(t, index.Build(context.Background(), chunksOf("a")))
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, vi.entries[0].Vector, 1e-6)
}

func TestEmbeddingIndex_UsesCache(t *testing.T) {
	embedder := newMockEmbedder(8)
	cache := newMockCache()
	index := NewEmbeddingIndex(embedder, flat.New(), IndexConfig{BatchSize: 2})
	index.SetCache(cache)

	chunks := chunksOf("one", "two", "three")
	require.NoError(t, index.Build(context.Background(), chunks))
	first := embedder.callCount()
	assert.Equal(t, 2, first)
	assert.Equal(t, 1, cache.puts)

	require.NoError(t, index.Build(context.Background(), chunks))
	assert.Equal(t, first, embedder.callCount(), "second build should be served from the cache")

	require.NoError(t, index.Build(context.Background(), chunksOf("one", "four")))
	assert.Equal(t, first+1, embedder.callCount())
	assert.Equal(t, []int{2, 1, 1}, embedder.batchN)
}

func TestEmbeddingIndex_CacheFailuresAreNotFatal(t *testing.T) {
	embedder := newMockEmbedder(8)
	cache := newMockCache()
	cache.getErr = errors.New("cache down")
	cache.putErr = errors.New("cache down")
	index := NewEmbeddingIndex(embedder, flat.New(), IndexConfig{})
	index.SetCache(cache)

	require.NoError(t, index.Build(context.Background(), chunksOf("one", "two")))
	assert.Equal(t, 2, index.Size())
}

func TestEmbeddingIndex_BuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*mockEmbedder, *mockVectorIndex)
		chunks  []domain.Chunk
		wantIs  []error
		wantMsg string
	}{
		{
			name:   "no chunks",
			chunks: nil,
			wantIs: []error{domain.ErrIndexBuild},
		},
		{
			name: "oracle failure",
			setup: func(e *mockEmbedder, _ *mockVectorIndex) {
				e.err = errors.New("connection refused")
			},
			chunks: chunksOf("a", "b"),
			wantIs: []error{domain.ErrIndexBuild},
		},
		{
			name: "dimension mismatch",
			setup: func(e *mockEmbedder, _ *mockVectorIndex) {
				e.embedFn = func(string) []float32 { return []float32{1, 2, 3} }
			},
			chunks: chunksOf("a"),
			wantIs: []error{domain.ErrIndexBuild, domain.ErrDimensionMismatch},
		},
		{
			name: "zero-length vector",
			setup: func(e *mockEmbedder, _ *mockVectorIndex) {
				e.embedFn = func(string) []float32 { return nil }
			},
			chunks: chunksOf("a"),
			wantIs: []error{domain.ErrIndexBuild, domain.ErrDimensionMismatch},
		},
		{
			name: "replace failure",
			setup: func(_ *mockEmbedder, vi *mockVectorIndex) {
				vi.replaceErr = errors.New("disk full")
			},
			chunks:  chunksOf("a"),
			wantIs:  []error{domain.ErrIndexBuild},
			wantMsg: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := newMockEmbedder(4)
			vi := &mockVectorIndex{}
			if tt.setup != nil {
				tt.setup(embedder, vi)
			}
			index := NewEmbeddingIndex(embedder, vi, IndexConfig{})

			err := index.Build(context.Background(), tt.chunks)
			require.Error(t, err)
			for _, target := range tt.wantIs {
				assert.ErrorIs(t, err, target)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
			assert.Equal(t, domain.KindOracle, domain.KindOf(err))
			assert.Zero(t, index.Size())
		})
	}
}

func TestEmbeddingIndex_OracleFailureIsTagged(t *testing.T) {
	embedder := newMockEmbedder(4)
	embedder.err = errors.New("503")
	index := NewEmbeddingIndex(embedder, flat.New(), IndexConfig{})

	err := index.Build(context.Background(), chunksOf("a"))

	var oracleErr *domain.OracleError
	require.ErrorAs(t, err, &oracleErr)
	assert.Equal(t, "embedding", oracleErr.Oracle)
}

func TestEmbeddingIndex_TimeoutPerCall(t *testing.T) {
	embedder := newMockEmbedder(4)
	embedder.gate = make(chan struct{})
	index := NewEmbeddingIndex(embedder, flat.New(), IndexConfig{OracleTimeout: 20 * time.Millisecond})

	err := index.Build(context.Background(), chunksOf("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOracleTimeout)
	assert.ErrorIs(t, err, domain.ErrIndexBuild)
}

func TestEmbeddingIndex_FailedBuildKeepsPreviousIndex(t *testing.T) {
	embedder := newMockEmbedder(4)
	index := NewEmbeddingIndex(embedder, flat.New(), IndexConfig{})
	require.NoError(t, index.Build(context.Background(), chunksOf("kept one", "kept two")))

	embedder.err = errors.New("oracle down")
	require.Error(t, index.Build(context.Background(), chunksOf("new")))

	assert.Equal(t, 2, index.Size())
	hits, err := index.Search(context.Background(), vectormath.Normalize(hashVector("kept one", 4)), 1)
	require.NoError(t, err)
	assert.Equal(t, "kept one", hits[0].Content)
}

func TestEmbeddingIndex_SearchEmpty(t *testing.T) {
	index := NewEmbeddingIndex(newMockEmbedder(4), flat.New(), IndexConfig{})

	_, err := index.Search(context.Background(), []float32{1, 0, 0, 0}, 3)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	assert.Empty(t, index.Model())
}

func TestEmbeddingIndex_SearchClampsK(t *testing.T) {
	index := NewEmbeddingIndex(newMockEmbedder(4), flat.New(), IndexConfig{})
	require.NoError(t, index.Build(context.Background(), chunksOf("a", "b")))

	hits, err := index.Search(context.Background(), vectormath.Normalize(hashVector("a", 4)), 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestEmbeddingIndex_ConcurrentSearchDuringRebuild(t *testing.T) {
	embedder := newMockEmbedder(8)
	index := NewEmbeddingIndex(embedder, flat.New(), IndexConfig{BatchSize: 2, Workers: 2})

	generation := func(prefix string) []domain.Chunk {
		texts := make([]string, 12)
		for i := range texts {
			texts[i] = fmt.Sprintf("%s-%d", prefix, i)
		}
		return chunksOf(texts...)
	}
	genA, genB := generation("alpha"), generation("beta")
	require.NoError(t, index.Build(context.Background(), genA))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			query := vectormath.Normalize(hashVector(fmt.Sprintf("probe-%d", w), 8))
			for ctx.Err() == nil {
				hits, err := index.Search(context.Background(), query, 12)
				if err != nil {
					errs <- err
					return
				}
				prefix := strings.SplitN(hits[0].Content, "-", 2)[0]
				for _, h := range hits {
					if !strings.HasPrefix(h.Content, prefix+"-") {
						errs <- fmt.Errorf("mixed snapshot: %q and %q", hits[0].Content, h.Content)
						return
					}
				}
				if len(hits) != 12 {
					errs <- fmt.Errorf("got %d hits", len(hits))
					return
				}
			}
		}()
	}

	var builders sync.WaitGroup
	for i := 0; i < 20; i++ {
		builders.Add(1)
		go func() {
			defer builders.Done()
			chunks := genA
			if i%2 == 1 {
				chunks = genB
			}
			if err := index.Build(context.Background(), chunks); err != nil {
				errs <- err
			}
		}()
	}
	builders.Wait()
	cancel()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

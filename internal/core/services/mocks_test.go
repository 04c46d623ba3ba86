package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService with a deterministic
// hash of the text, or embedFn when set.
type mockEmbedder struct {
	dims    int
	model   string
	embedFn func(text string) []float32
	err     error
	pingErr error

	// gate, when set, blocks every call until it is closed.
	gate chan struct{}

	mu     sync.Mutex
	calls  int
	batchN []int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, model: "mock-embed"}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return hashVector(text, m.dims)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.batchN = append(m.batchN, len(texts))
	m.mu.Unlock()

	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return m.model }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// hashVector spreads the bytes of text over dims buckets.
func hashVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	for i := range v {
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v[i] = float32(seed%1000) / 1000
	}
	return v
}

// mockReader implements driven.AnswerOracle.
type mockReader struct {
	result  driven.ReaderResult
	err     error
	pingErr error
	block   bool
	calls   atomic.Int32
}

func (m *mockReader) Answer(ctx context.Context, _, _ string) (driven.ReaderResult, error) {
	m.calls.Add(1)
	if m.block {
		<-ctx.Done()
		return driven.ReaderResult{}, ctx.Err()
	}
	return m.result, m.err
}

func (m *mockReader) ModelName() string            { return "mock-reader" }
func (m *mockReader) Ping(_ context.Context) error { return m.pingErr }
func (m *mockReader) Close() error                 { return nil }

// mockEntities implements driven.EntityExtractor from a fixed table.
type mockEntities struct {
	byText map[string][]string
	err    error
}

func (m *mockEntities) Entities(_ context.Context, text string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byText[text], nil
}

func (m *mockEntities) ModelName() string            { return "mock-ner" }
func (m *mockEntities) Ping(_ context.Context) error { return m.err }
func (m *mockEntities) Close() error                 { return nil }

// mockCache implements driven.EmbeddingCache over a map.
type mockCache struct {
	mu     sync.Mutex
	data   map[string][]float32
	getErr error
	putErr error
	puts   int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]float32)}
}

func (c *mockCache) GetMany(_ context.Context, model string, texts []string) ([][]float32, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = c.data[model+"|"+t]
	}
	return out, nil
}

func (c *mockCache) PutMany(_ context.Context, model string, texts []string, vectors [][]float32) error {
	if c.putErr != nil {
		return c.putErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	for i, t := range texts {
		c.data[model+"|"+t] = vectors[i]
	}
	return nil
}

func (c *mockCache) Close() error { return nil }

// mockLLM implements driven.LLMService.
type mockLLM struct {
	summary string
	err     error
	gotMax  int
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return m.summary, m.err
}

func (m *mockLLM) Summarise(_ context.Context, _ string, maxSentences int) (string, error) {
	m.gotMax = maxSentences
	return m.summary, m.err
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return m.err }
func (m *mockLLM) Close() error                 { return nil }

// mockVectorIndex implements driven.VectorIndex and fails Replace on demand.
type mockVectorIndex struct {
	entries    []driven.IndexEntry
	replaceErr error
}

func (m *mockVectorIndex) Replace(_ context.Context, entries []driven.IndexEntry) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.entries = entries
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if len(m.entries) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	hits := make([]driven.VectorHit, 0, k)
	for i, e := range m.entries {
		if i == k {
			break
		}
		hits = append(hits, driven.VectorHit{ChunkID: e.ChunkID, Position: e.Position, Content: e.Content})
	}
	return hits, nil
}

func (m *mockVectorIndex) Size() int    { return len(m.entries) }
func (m *mockVectorIndex) Close() error { return nil }

// chunksOf builds one chunk per text with positions in order.
func chunksOf(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{ID: fmt.Sprintf("chunk-%d", i), Content: t, Position: i}
	}
	return chunks
}

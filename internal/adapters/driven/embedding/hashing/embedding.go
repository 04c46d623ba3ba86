// Package hashing provides an offline embedding service based on signed
// feature hashing of word unigrams and character trigrams.
package hashing

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/textutil"
	"github.com/custodia-labs/docqa/internal/vectormath"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	ModelName         = "feature-hash-v1"
	DefaultDimensions = 384

	trigramWeight = 0.5
)

// EmbeddingService is a deterministic bag-of-features embedder. Texts that
// share content words (or word fragments) get a positive cosine similarity;
// unrelated texts are close to orthogonal. Stopwords are ignored.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder producing dims-length vectors.
func NewEmbeddingService(dims int) *EmbeddingService {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dims}
}

// Embed returns the L2-normalised feature vector of text.
// Text without content words yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, tok := range textutil.Tokens(text) {
		if textutil.IsStopword(tok) {
			continue
		}
		counts[tok]++
	}

	vec := make([]float32, s.dimensions)
	for tok, n := range counts {
		weight := 1 + math.Log(float64(n))
		s.add(vec, "w:"+tok, weight)
		for _, tri := range trigrams(tok) {
			s.add(vec, "c:"+tri, weight*trigramWeight)
		}
	}
	return vectormath.Normalize(vec), nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *EmbeddingService) add(vec []float32, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature)) //nolint:errcheck // hash writes never fail
	sum := h.Sum64()
	idx := sum % uint64(len(vec))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += float32(weight)
}

// trigrams returns the character trigrams of tok padded with boundary markers.
func trigrams(tok string) []string {
	runes := []rune("^" + tok + "$")
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds; the model runs in process.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

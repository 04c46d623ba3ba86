package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/vectormath"
)

// DefaultTopK is the number of passages retrieved per question.
const DefaultTopK = 3

// ContextDelimiter separates retrieved passages in the reader context.
const ContextDelimiter = "\n\n"

// Retriever turns a question into a reader context by nearest-neighbour
// search over the embedding index.
type Retriever struct {
	index   *EmbeddingIndex
	topK    int
	timeout time.Duration
}

// NewRetriever creates a retriever over index. A non-positive topK uses DefaultTopK.
func NewRetriever(index *EmbeddingIndex, topK int, timeout time.Duration) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &Retriever{index: index, topK: topK, timeout: timeout}
}

// Retrieve embeds question, finds the k closest chunks and joins their text
// in rank order. A non-positive k uses the retriever's default.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (*domain.Retrieval, error) {
	if k <= 0 {
		k = r.topK
	}
	if r.index.Size() == 0 {
		return nil, fmt.Errorf("%w: upload a document first", domain.ErrEmptyIndex)
	}

	embedder := r.index.Embedder()
	if built := r.index.Model(); built != "" && built != embedder.ModelName() {
		return nil, fmt.Errorf("%w: index built with %s, querying with %s",
			domain.ErrIndexBuild, built, embedder.ModelName())
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	vec, err := embedder.Embed(callCtx, question)
	if err != nil {
		return nil, domain.NewOracleError("embedding", err)
	}

	hits, err := r.index.Search(ctx, vectormath.Normalize(vec), k)
	if err != nil {
		return nil, err
	}

	passages := make([]string, len(hits))
	sources := make([]domain.Source, len(hits))
	for i, h := range hits {
		passages[i] = h.Content
		sources[i] = domain.Source{ChunkID: h.ChunkID, Position: h.Position, Distance: h.Distance}
		logger.Debug("  [%d] chunk %d distance=%.4f", i+1, h.Position, h.Distance)
	}

	return &domain.Retrieval{
		Context: strings.Join(passages, ContextDelimiter),
		Sources: sources,
	}, nil
}

// Package hnsw provides an approximate nearest-neighbour index based on
// Hierarchical Navigable Small World graphs (Malkov & Yashunin, 2016).
//
// Each Replace builds a complete graph off to the side and swaps it in
// atomically. Searches run against whichever graph they loaded and results
// are re-ranked by exact L2 distance.
package hnsw

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an HNSW-backed vector index.
type Index struct {
	cfg  Config
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	g       *graph
	entries []driven.IndexEntry
	dims    int
}

// New creates an empty index.
func New(cfg Config) *Index {
	idx := &Index{cfg: cfg}
	idx.snap.Store(&snapshot{g: newGraph(cfg, 0)})
	return idx
}

// Replace builds a new graph from entries and swaps it in.
func (idx *Index) Replace(ctx context.Context, entries []driven.IndexEntry) error {
	g := newGraph(idx.cfg, len(entries))
	s := &snapshot{g: g, entries: make([]driven.IndexEntry, len(entries))}
	for i, e := range entries {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if i == 0 {
			s.dims = len(e.Vector)
		}
		if len(e.Vector) == 0 || len(e.Vector) != s.dims {
			return fmt.Errorf("%w: entry %d has %d dimensions, want %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), s.dims)
		}
		e.Vector = append([]float32(nil), e.Vector...)
		s.entries[i] = e
		g.insert(e.Vector)
	}
	idx.snap.Store(s)
	logger.Debug("hnsw: built graph with %d nodes, top level %d", len(entries), g.topLevel)
	return nil
}

// Search returns up to k approximate nearest entries, closest first.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := idx.snap.Load()
	if len(s.entries) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(query) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), s.dims)
	}
	k = min(k, len(s.entries))
	if k <= 0 {
		return nil, nil
	}

	cands := s.g.search(query, k)
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].id < cands[j].id
	})
	if len(cands) > k {
		cands = cands[:k]
	}

	hits := make([]driven.VectorHit, len(cands))
	for i, c := range cands {
		e := s.entries[c.id]
		hits[i] = driven.VectorHit{
			ChunkID:  e.ChunkID,
			Position: e.Position,
			Content:  e.Content,
			Distance: math.Sqrt(c.dist),
		}
	}
	return hits, nil
}

// Size returns the number of indexed entries.
func (idx *Index) Size() int {
	return len(idx.snap.Load().entries)
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

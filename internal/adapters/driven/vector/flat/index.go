// Package flat provides an exact brute-force vector index.
//
// The whole index is an immutable snapshot held behind an atomic pointer.
// Replace builds a new snapshot and swaps it in; searches that already
// loaded the old snapshot finish against it undisturbed.
package flat

import (
	"container/heap"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/vectormath"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an exact L2 nearest-neighbour index.
type Index struct {
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	entries []driven.IndexEntry
	dims    int
}

// New creates an empty index.
func New() *Index {
	idx := &Index{}
	idx.snap.Store(&snapshot{})
	return idx
}

// Replace swaps in a new set of entries. All vectors must share one length.
func (idx *Index) Replace(ctx context.Context, entries []driven.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next, err := newSnapshot(entries)
	if err != nil {
		return err
	}
	idx.snap.Store(next)
	return nil
}

func newSnapshot(entries []driven.IndexEntry) (*snapshot, error) {
	s := &snapshot{entries: make([]driven.IndexEntry, len(entries))}
	for i, e := range entries {
		if i == 0 {
			s.dims = len(e.Vector)
		}
		if len(e.Vector) == 0 || len(e.Vector) != s.dims {
			return nil, fmt.Errorf("%w: entry %d has %d dimensions, want %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), s.dims)
		}
		e.Vector = append([]float32(nil), e.Vector...)
		s.entries[i] = e
	}
	return s, nil
}

// Search returns up to k entries nearest to query, closest first.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
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

	// Max-heap of the k best so far; the root is the worst kept hit.
	h := make(hitHeap, 0, k)
	for i := range s.entries {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		d := vectormath.L2(query, s.entries[i].Vector)
		switch {
		case len(h) < k:
			heap.Push(&h, scored{idx: i, dist: d})
		case d < h[0].dist:
			h[0] = scored{idx: i, dist: d}
			heap.Fix(&h, 0)
		}
	}

	hits := make([]driven.VectorHit, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		top := heap.Pop(&h).(scored)
		e := s.entries[top.idx]
		hits[i] = driven.VectorHit{
			ChunkID:  e.ChunkID,
			Position: e.Position,
			Content:  e.Content,
			Distance: top.dist,
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

type scored struct {
	idx  int
	dist float64
}

// hitHeap is a max-heap on distance, ties broken by later position first so
// that the earlier chunk wins equal distances.
type hitHeap []scored

func (h hitHeap) Len() int { return len(h) }
func (h hitHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist > h[j].dist
	}
	return h[i].idx > h[j].idx
}
func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)   { *h = append(*h, x.(scored)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

package driven

import "context"

// VectorIndex stores chunk vectors and answers nearest-neighbour queries by
// L2 distance. The index is replaced wholesale on every rebuild: readers
// always observe either the previous or the new snapshot, never a mix.
type VectorIndex interface {
	// Replace atomically swaps the indexed set for entries.
	// On error the previous snapshot stays active.
	Replace(ctx context.Context, entries []IndexEntry) error

	// Search returns up to k entries nearest to query, ascending by distance.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Size returns the number of entries in the active snapshot.
	Size() int

	// Close releases resources.
	Close() error
}

// IndexEntry pairs a chunk with its normalised embedding.
type IndexEntry struct {
	// ChunkID identifies the chunk.
	ChunkID string

	// Position is the chunk's ordinal position in the session.
	Position int

	// Content is the chunk text, stored alongside the vector so a search
	// result never needs a second lookup against a possibly newer snapshot.
	Content string

	// Vector is the L2-normalised embedding.
	Vector []float32
}

// VectorHit represents a nearest-neighbour search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Position is the chunk's ordinal position in the session.
	Position int

	// Content is the chunk text.
	Content string

	// Distance is the L2 distance to the query (lower is closer).
	Distance float64
}

// Package qdrant provides a vector index stored in a remote Qdrant instance.
//
// Every Replace writes a fresh generation collection named
// "<prefix>_g<n>". Once it is fully populated, the active collection name is
// switched atomically, so searches never see a half-written index. The
// previous generation is dropped once the last search still reading it
// returns.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	qc "github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// upsertBatch is the number of points written per request.
const upsertBatch = 256

// Payload keys.
const (
	keyChunkID  = "chunk_id"
	keyPosition = "position"
	keyContent  = "content"
)

// Client is the subset of the Qdrant client the index uses.
type Client interface {
	CreateCollection(ctx context.Context, request *qc.CreateCollection) error
	DeleteCollection(ctx context.Context, collectionName string) error
	Upsert(ctx context.Context, request *qc.UpsertPoints) (*qc.UpdateResult, error)
	Query(ctx context.Context, request *qc.QueryPoints) ([]*qc.ScoredPoint, error)
	HealthCheck(ctx context.Context) (*qc.HealthCheckReply, error)
	Close() error
}

// Config holds Qdrant connection settings.
type Config struct {
	// Addr is the gRPC address as host:port.
	Addr string

	// APIKey authenticates against Qdrant Cloud. Setting it enables TLS.
	APIKey string

	// Collection is the prefix for generation collections.
	Collection string
}

// active is one generation. refs counts the index's own reference plus every
// in-flight search; the collection is dropped when it reaches zero.
type active struct {
	name string
	size int
	dims int
	refs atomic.Int64
}

func newActive(name string, size, dims int) *active {
	a := &active{name: name, size: size, dims: dims}
	a.refs.Store(1)
	return a
}

// tryAcquire takes a reference unless the generation is already released.
func (a *active) tryAcquire() bool {
	for {
		n := a.refs.Load()
		if n <= 0 {
			return false
		}
		if a.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Index is a Qdrant-backed vector index.
type Index struct {
	client Client
	prefix string

	mu  sync.Mutex // serialises Replace
	gen uint64
	cur atomic.Pointer[active]
}

// Dial connects to Qdrant.
func Dial(cfg Config) (*Index, error) {
	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("qdrant: invalid address %q: %w", cfg.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("qdrant: invalid port %q: %w", portStr, err)
	}
	client, err := qc.NewClient(&qc.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.APIKey != "",
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect: %w", err)
	}
	return New(client, cfg.Collection), nil
}

// New wraps an existing client.
func New(client Client, prefix string) *Index {
	if prefix == "" {
		prefix = "docqa"
	}
	idx := &Index{
		client: client,
		prefix: prefix,
		gen:    uint64(time.Now().UnixNano()),
	}
	idx.cur.Store(newActive("", 0, 0))
	return idx
}

// Replace writes entries to a new generation collection and activates it.
func (idx *Index) Replace(ctx context.Context, entries []driven.IndexEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", domain.ErrInvalidInput)
	}
	dims := len(entries[0].Vector)
	for i, e := range entries {
		if len(e.Vector) == 0 || len(e.Vector) != dims {
			return fmt.Errorf("%w: entry %d has %d dimensions, want %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), dims)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.gen++
	name := fmt.Sprintf("%s_g%d", idx.prefix, idx.gen)
	if err := idx.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: name,
		VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
			Size:     uint64(dims),
			Distance: qc.Distance_Euclid,
		}),
	}); err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", name, err)
	}

	if err := idx.upsert(ctx, name, entries); err != nil {
		idx.drop(name)
		return err
	}

	prev := idx.cur.Swap(newActive(name, len(entries), dims))
	idx.release(prev)
	logger.Debug("qdrant: activated collection %s with %d points", name, len(entries))
	return nil
}

func (idx *Index) upsert(ctx context.Context, name string, entries []driven.IndexEntry) error {
	for start := 0; start < len(entries); start += upsertBatch {
		end := min(start+upsertBatch, len(entries))
		points := make([]*qc.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			e := entries[i]
			points = append(points, &qc.PointStruct{
				Id:      qc.NewIDNum(uint64(i)),
				Vectors: qc.NewVectors(e.Vector...),
				Payload: qc.NewValueMap(map[string]any{
					keyChunkID:  e.ChunkID,
					keyPosition: e.Position,
					keyContent:  e.Content,
				}),
			})
		}
		if _, err := idx.client.Upsert(ctx, &qc.UpsertPoints{
			CollectionName: name,
			Wait:           qc.PtrOf(true),
			Points:         points,
		}); err != nil {
			return fmt.Errorf("qdrant: upsert into %s: %w", name, err)
		}
	}
	return nil
}

// drop removes a collection, logging failures. A stale generation only
// costs storage, so it never fails the caller.
func (idx *Index) drop(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := idx.client.DeleteCollection(ctx, name); err != nil {
		logger.Warn("qdrant: failed to drop collection %s: %v", name, err)
	}
}

// acquire pins the active generation for the duration of a search.
func (idx *Index) acquire() *active {
	for {
		if cur := idx.cur.Load(); cur.tryAcquire() {
			return cur
		}
	}
}

// release drops a reference and removes the collection with the last one.
func (idx *Index) release(a *active) {
	if a.refs.Add(-1) == 0 && a.name != "" {
		idx.drop(a.name)
	}
}

// Search queries the active collection.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	cur := idx.acquire()
	defer idx.release(cur)
	if cur.size == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(query) != cur.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), cur.dims)
	}
	k = min(k, cur.size)
	if k <= 0 {
		return nil, nil
	}

	points, err := idx.client.Query(ctx, &qc.QueryPoints{
		CollectionName: cur.name,
		Query:          qc.NewQuery(query...),
		Limit:          qc.PtrOf(uint64(k)),
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query %s: %w", cur.name, err)
	}

	hits := make([]driven.VectorHit, 0, len(points))
	for _, p := range points {
		hit, err := toHit(p)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func toHit(p *qc.ScoredPoint) (driven.VectorHit, error) {
	payload := p.GetPayload()
	chunkID := payload[keyChunkID].GetStringValue()
	if chunkID == "" {
		return driven.VectorHit{}, errors.New("qdrant: point without chunk id")
	}
	// Euclid collections report the distance itself as the score.
	return driven.VectorHit{
		ChunkID:  chunkID,
		Position: int(payload[keyPosition].GetIntegerValue()),
		Content:  payload[keyContent].GetStringValue(),
		Distance: float64(p.GetScore()),
	}, nil
}

// Size returns the number of points in the active collection.
func (idx *Index) Size() int {
	return idx.cur.Load().size
}

// Ping checks that Qdrant is reachable.
func (idx *Index) Ping(ctx context.Context) error {
	if _, err := idx.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

// Close drops the active collection and closes the connection.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.release(idx.cur.Swap(newActive("", 0, 0)))
	return idx.client.Close()
}

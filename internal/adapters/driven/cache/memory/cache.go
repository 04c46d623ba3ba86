// Package memory provides an in-process embedding cache with TTL expiry.
package memory

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/docqa/internal/adapters/driven/cache"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = time.Hour

// Cache stores vectors in memory until they expire.
type Cache struct {
	c *gocache.Cache
}

// New creates a cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{c: gocache.New(ttl, ttl/6)}
}

// GetMany returns cached vectors aligned with texts; misses are nil.
func (m *Cache) GetMany(_ context.Context, model string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := m.c.Get(cache.Key(model, text)); ok {
			out[i] = v.([]float32)
		}
	}
	return out, nil
}

// PutMany stores copies of vectors for texts.
func (m *Cache) PutMany(_ context.Context, model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch: %d != %d", len(texts), len(vectors))
	}
	for i, text := range texts {
		if len(vectors[i]) == 0 {
			continue
		}
		m.c.Set(cache.Key(model, text), append([]float32(nil), vectors[i]...), gocache.DefaultExpiration)
	}
	return nil
}

// Len returns the number of live entries.
func (m *Cache) Len() int {
	return m.c.ItemCount()
}

// Close drops every entry.
func (m *Cache) Close() error {
	m.c.Flush()
	return nil
}

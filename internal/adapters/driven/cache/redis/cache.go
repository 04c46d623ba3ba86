// Package redis provides an embedding cache shared through Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docqa/internal/adapters/driven/cache"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// keyPrefix namespaces docqa keys in a shared database.
const keyPrefix = "docqa:emb:"

// Cache stores vectors in Redis with a TTL.
type Cache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// ParseOptions accepts a redis:// URL or a bare host:port address.
func ParseOptions(url string) *goredis.Options {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return &goredis.Options{Addr: url}
	}
	return opt
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	if url == "" {
		return nil, errors.New("redis: url is required")
	}
	rdb := goredis.NewClient(ParseOptions(url))
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(rdb, ttl), nil
}

// New wraps an existing client.
func New(rdb *goredis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// GetMany fetches all keys with a single MGET; misses are nil.
func (c *Cache) GetMany(ctx context.Context, model string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = keyPrefix + cache.Key(model, text)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: mget: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[i] = cache.DecodeVector([]byte(s))
		}
	}
	return out, nil
}

// PutMany writes all vectors in one pipeline.
func (c *Cache) PutMany(ctx context.Context, model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch: %d != %d", len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, text := range texts {
			if len(vectors[i]) == 0 {
				continue
			}
			p.Set(ctx, keyPrefix+cache.Key(model, text), cache.EncodeVector(vectors[i]), c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: pipeline: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opt := ParseOptions("redis://:secret@cache.local:6380/2")
	assert.Equal(t, "cache.local:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)

	bare := ParseOptions("localhost:6379")
	assert.Equal(t, "localhost:6379", bare.Addr)
}

func TestDial_RequiresURL(t *testing.T) {
	_, err := Dial(context.Background(), "", time.Minute)
	assert.Error(t, err)
}

// TestCache_Live runs against a real server when DOCQA_TEST_REDIS_URL is set.
func TestCache_Live(t *testing.T) {
	url := os.Getenv("DOCQA_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DOCQA_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := Dial(ctx, url, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	model := "test-" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, c.PutMany(ctx, model, []string{"a", "b"}, [][]float32{{1, 2}, {3}}))

	got, err := c.GetMany(ctx, model, []string{"b", "missing", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3}, nil, {1, 2}}, got)
}

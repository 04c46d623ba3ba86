package postprocessors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())

	r.Register("test", func(cfg map[string]any) (driven.PostProcessor, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &mockProcessor{name: name}, nil
	})

	assert.True(t, r.Has("test"))
	assert.False(t, r.Has("nonexistent"))

	proc, err := r.Build("test", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", proc.Name())
}

func TestRegistry_Build_UnknownProcessor(t *testing.T) {
	_, err := NewRegistry().Build("unknown", nil)
	assert.ErrorContains(t, err, "unknown processor: unknown")
}

func TestRegistry_BuildPipeline_UnknownStage(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.BuildPipeline(Stage{Name: NormaliserName}, Stage{Name: "stemmer"})
	assert.ErrorContains(t, err, "build stemmer")
}

func TestRegistry_Names_Sorted(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	assert.Equal(t, []string{ChunkerName, NormaliserName}, r.Names())
}

func TestBuildChunker_Config(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]any
		want int
	}{
		{"explicit size", map[string]any{"chunk_size": 50}, 50},
		{"float from json", map[string]any{"chunk_size": float64(75)}, 75},
		{"nil config", nil, chunker.DefaultChunkSize},
		{"zero ignored", map[string]any{"chunk_size": 0}, chunker.DefaultChunkSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc, err := buildChunker(tt.cfg)
			require.NoError(t, err)
			c, ok := proc.(*chunker.Processor)
			require.True(t, ok)
			assert.Equal(t, tt.want, c.ChunkSize())
		})
	}
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		key      string
		expected int
	}{
		{"int value", map[string]any{"size": 100}, "size", 100},
		{"int64 value", map[string]any{"size": int64(200)}, "size", 200},
		{"float64 value", map[string]any{"size": float64(300)}, "size", 300},
		{"string value", map[string]any{"size": "400"}, "size", 0},
		{"missing key", map[string]any{"other": 100}, "size", 0},
		{"nil config", nil, "size", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getIntFromConfig(tt.cfg, tt.key))
		})
	}
}

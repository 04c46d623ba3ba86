package heuristic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"sentence", "Paris is the capital of France.", []string{"Paris", "France"}},
		{"single answer", "Berlin", []string{"Berlin"}},
		{"multi word", "Marie Curie moved to New York.", []string{"Marie Curie", "New York"}},
		{"leading function word", "The Eiffel Tower is tall.", []string{"Eiffel Tower"}},
		{"question word", "What does Acme sell?", []string{"Acme"}},
		{"punctuation splits", "Paris, France", []string{"Paris", "France"}},
		{"numbers", "Founded in 1850 by Smith.", []string{"Founded", "1850", "Smith"}},
		{"duplicates", "Paris and Paris again.", []string{"Paris"}},
		{"none", "all lower case here", nil},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Entities(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntities_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Entities(ctx, "Paris")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetadata(t *testing.T) {
	e := New()
	assert.Equal(t, ModelName, e.ModelName())
	assert.NoError(t, e.Ping(context.Background()))
	assert.NoError(t, e.Close())
}

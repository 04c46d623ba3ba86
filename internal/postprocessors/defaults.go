package postprocessors

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/normaliser"
)

// Names of the built-in processors, in the order the default pipeline runs them.
const (
	NormaliserName = "normaliser"
	ChunkerName    = "chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register(NormaliserName, buildNormaliser)
	r.Register(ChunkerName, buildChunker)
}

// NewDefaultPipeline builds the normaliser → chunker pipeline used for uploads.
func NewDefaultPipeline(chunkSize int) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(
		Stage{Name: NormaliserName},
		Stage{Name: ChunkerName, Config: map[string]any{"chunk_size": chunkSize}},
	)
}

func buildNormaliser(_ map[string]any) (driven.PostProcessor, error) {
	return normaliser.New(), nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Maximum words per chunk (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

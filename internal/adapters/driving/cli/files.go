package cli

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/logger"
)

// ingestFiles reads paths from disk and indexes them as one session.
func ingestFiles(ctx context.Context, paths []string) (*domain.IngestResult, error) {
	docs, err := extractors.ReadFiles(maxFileBytes(), paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to read files: %w", err)
	}
	result, err := documentService.Ingest(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to index files: %w", err)
	}
	logger.Info("indexed %d document(s) into %d chunks", len(result.Documents), result.ChunkCount)
	return result, nil
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService owns the current document session. Each ingest replaces
// the session and the index wholesale.
type DocumentService struct {
	extractors driven.ExtractorRegistry
	pipeline   driven.PostProcessorPipeline
	index      *EmbeddingIndex

	// ingestMu is only ever TryLocked; a held lock means an ingest is running.
	ingestMu sync.Mutex

	mu      sync.RWMutex
	session domain.SessionInfo

	now func() time.Time
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	extractors driven.ExtractorRegistry,
	pipeline driven.PostProcessorPipeline,
	index *EmbeddingIndex,
) *DocumentService {
	return &DocumentService{
		extractors: extractors,
		pipeline:   pipeline,
		index:      index,
		now:        time.Now,
	}
}

// Ingest extracts, normalises and chunks every upload, then rebuilds the
// index from all of them. Returned documents carry the extracted text
// before normalisation. Failures are returned as *domain.RequestError.
func (s *DocumentService) Ingest(ctx context.Context, uploads []domain.RawDocument) (*domain.IngestResult, error) {
	if len(uploads) == 0 {
		return nil, domain.NewRequestError(fmt.Errorf("no files: %w", domain.ErrEmptyInput))
	}
	if !s.ingestMu.TryLock() {
		return nil, domain.NewRequestError(domain.ErrIngestInProgress)
	}
	defer s.ingestMu.Unlock()

	logger.Section("Document Ingest")
	start := time.Now()

	var (
		docs   []domain.Document
		chunks []domain.Chunk
	)
	for i := range uploads {
		raw := &uploads[i]
		doc, err := s.extractors.Extract(ctx, raw)
		if err != nil {
			return nil, s.fail(raw.Name, err)
		}
		extracted := *doc

		docChunks, err := s.pipeline.Process(ctx, doc)
		if err != nil {
			return nil, s.fail(raw.Name, err)
		}
		for _, c := range docChunks {
			c.Position = len(chunks)
			chunks = append(chunks, c)
		}
		docs = append(docs, extracted)
		logger.Debug("%s: %d characters, %d chunks", raw.Name, len(extracted.Content), len(docChunks))
	}

	if err := s.index.Build(ctx, chunks); err != nil {
		return nil, s.fail("index", err)
	}

	info := domain.SessionInfo{
		DocumentIDs:    make([]string, len(docs)),
		DocumentNames:  make([]string, len(docs)),
		ChunkCount:     len(chunks),
		EmbeddingModel: s.index.Model(),
		BuiltAt:        s.now(),
	}
	for i, d := range docs {
		info.DocumentIDs[i] = d.ID
		info.DocumentNames[i] = d.Name
	}
	s.mu.Lock()
	s.session = info
	s.mu.Unlock()

	logger.Info("Indexed %d documents (%d chunks) in %v", len(docs), len(chunks), time.Since(start))
	return &domain.IngestResult{Documents: docs, ChunkCount: len(chunks)}, nil
}

// Current returns a summary of the active session.
func (s *DocumentService) Current() domain.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := s.session
	info.DocumentIDs = append([]string(nil), s.session.DocumentIDs...)
	info.DocumentNames = append([]string(nil), s.session.DocumentNames...)
	return info
}

func (s *DocumentService) fail(stage string, err error) error {
	reqErr := domain.NewRequestError(err)
	if reqErr.Kind == domain.KindInternal {
		logger.Error("Ingest %s failed: %v", stage, err)
	} else {
		logger.Warn("Ingest %s rejected: %v", stage, err)
	}
	return reqErr
}

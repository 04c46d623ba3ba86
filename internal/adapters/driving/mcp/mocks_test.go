package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockQAService is a mock implementation of driving.QAService.
type mockQAService struct {
	answer *domain.Answer
	err    error
	query  domain.Query
}

func (m *mockQAService) Ask(_ context.Context, q domain.Query) (*domain.Answer, error) {
	m.query = q
	return m.answer, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	uploads []domain.RawDocument
	session domain.SessionInfo
	err     error
}

func (m *mockDocumentService) Ingest(_ context.Context, uploads []domain.RawDocument) (*domain.IngestResult, error) {
	m.uploads = uploads
	if m.err != nil {
		return nil, m.err
	}
	res := &domain.IngestResult{ChunkCount: len(uploads) * 2}
	for _, u := range uploads {
		res.Documents = append(res.Documents, domain.Document{ID: "id-" + u.Name, Name: u.Name})
	}
	return res, nil
}

func (m *mockDocumentService) Current() domain.SessionInfo {
	return m.session
}

// mockSummaryService is a mock implementation of driving.SummaryService.
type mockSummaryService struct {
	summary string
	err     error
}

func (m *mockSummaryService) Summarise(_ context.Context, _ string, _ int) (string, error) {
	return m.summary, m.err
}

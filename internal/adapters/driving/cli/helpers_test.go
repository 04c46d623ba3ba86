package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/config/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// MockQAService implements driving.QAService for CLI tests.
type MockQAService struct {
	mu      sync.Mutex
	queries []domain.Query

	AskFunc func(ctx context.Context, query domain.Query) (*domain.Answer, error)
}

func (m *MockQAService) Ask(ctx context.Context, query domain.Query) (*domain.Answer, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.AskFunc != nil {
		return m.AskFunc(ctx, query)
	}
	return &domain.Answer{Text: domain.NoAnswerText, Warnings: []domain.Warning{}}, nil
}

func (m *MockQAService) Queries() []domain.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Query(nil), m.queries...)
}

// MockDocumentService implements driving.DocumentService for CLI tests.
type MockDocumentService struct {
	mu      sync.Mutex
	uploads []domain.RawDocument
	session domain.SessionInfo

	IngestFunc func(ctx context.Context, uploads []domain.RawDocument) (*domain.IngestResult, error)
}

func (m *MockDocumentService) Ingest(
	ctx context.Context, uploads []domain.RawDocument,
) (*domain.IngestResult, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, uploads)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, uploads...)
	result := &domain.IngestResult{ChunkCount: 2 * len(uploads)}
	m.session = domain.SessionInfo{ChunkCount: result.ChunkCount}
	for _, u := range uploads {
		result.Documents = append(result.Documents, domain.Document{ID: "id-" + u.Name, Name: u.Name})
		m.session.DocumentIDs = append(m.session.DocumentIDs, "id-"+u.Name)
		m.session.DocumentNames = append(m.session.DocumentNames, u.Name)
	}
	return result, nil
}

func (m *MockDocumentService) Current() domain.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *MockDocumentService) Uploads() []domain.RawDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RawDocument(nil), m.uploads...)
}

// MockSummaryService implements driving.SummaryService for CLI tests.
type MockSummaryService struct {
	SummariseFunc func(ctx context.Context, text string, maxSentences int) (string, error)
}

func (m *MockSummaryService) Summarise(ctx context.Context, text string, maxSentences int) (string, error) {
	if m.SummariseFunc != nil {
		return m.SummariseFunc(ctx, text, maxSentences)
	}
	return text, nil
}

var (
	_ driving.QAService       = (*MockQAService)(nil)
	_ driving.DocumentService = (*MockDocumentService)(nil)
	_ driving.SummaryService  = (*MockSummaryService)(nil)
)

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	qa       *MockQAService
	docs     *MockDocumentService
	summary  *MockSummaryService
	settings *services.SettingsService
}

// setupTestServices installs mocks for every package-level service and
// returns them with a cleanup that restores the previous state.
func setupTestServices() (*testServices, func()) {
	oldQA, oldDocs, oldSummary := qaService, documentService, summaryService
	oldHealth, oldSettings, oldApp := healthService, settingsService, appSettings

	ts := &testServices{
		qa:       &MockQAService{},
		docs:     &MockDocumentService{},
		summary:  &MockSummaryService{},
		settings: services.NewSettingsService(memory.NewConfigStore(nil), nil),
	}
	defaults := domain.DefaultAppSettings()

	qaService = ts.qa
	documentService = ts.docs
	summaryService = ts.summary
	healthService = services.NewHealthService(ts.docs, 0)
	settingsService = ts.settings
	appSettings = &defaults

	return ts, func() {
		qaService, documentService, summaryService = oldQA, oldDocs, oldSummary
		healthService, settingsService, appSettings = oldHealth, oldSettings, oldApp
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// resetFlags restores flag-bound variables; cobra keeps them between
// executions.
func resetFlags() {
	verbose, configDir, ephemeral = false, "", false
	askFiles, askContext, askTopK, askJSON = nil, "", 0, false
	serveListen, serveFiles, serveWatch = "", nil, false
	chatWatch = false
	summarizeSentences = 0
}

// execute runs rootCmd with args and returns the combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

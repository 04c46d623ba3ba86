package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	Session    domain.SessionInfo
	IngestFunc func(ctx context.Context, uploads []domain.RawDocument) (*domain.IngestResult, error)
}

func (m *MockDocumentService) Ingest(
	ctx context.Context, uploads []domain.RawDocument,
) (*domain.IngestResult, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, uploads)
	}
	return &domain.IngestResult{}, nil
}

func (m *MockDocumentService) Current() domain.SessionInfo {
	return m.Session
}

func indexedSession() domain.SessionInfo {
	return domain.SessionInfo{
		DocumentIDs:    []string{"doc-1", "doc-2"},
		DocumentNames:  []string{"guide.pdf", "notes.md"},
		ChunkCount:     14,
		EmbeddingModel: "feature-hash-v1",
		BuiltAt:        time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, &MockDocumentService{})

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.False(t, view.Prompting())
	assert.False(t, view.pathInput.Focused())
}

func TestView_Init_LoadsSession(t *testing.T) {
	docs := &MockDocumentService{Session: indexedSession()}
	view := NewView(nil, nil, docs)

	cmd := view.Init()
	require.NotNil(t, cmd)

	msg := cmd()
	loaded, ok := msg.(messages.SessionLoaded)
	require.True(t, ok)
	assert.Equal(t, docs.Session, loaded.Session)

	view.Update(msg)
	assert.Equal(t, docs.Session, view.Session())
}

func TestView_Init_NoService(t *testing.T) {
	view := NewView(nil, nil, nil)

	msg := view.Init()()

	occurred, ok := msg.(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, occurred.Err, ErrNoDocumentService)
}

func TestView_Navigation(t *testing.T) {
	view := NewView(nil, nil, &MockDocumentService{})
	view.Update(messages.SessionLoaded{Session: indexedSession()})

	view.Update(runeKey('j'))
	assert.Equal(t, 1, view.Selected())
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.Selected())
	view.Update(runeKey('k'))
	assert.Equal(t, 0, view.Selected())
}

func TestView_Esc_ReturnsToMenu(t *testing.T) {
	view := NewView(nil, nil, nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Prompt_Cancel(t *testing.T) {
	view := NewView(nil, nil, &MockDocumentService{})

	view.Update(runeKey('a'))
	require.True(t, view.Prompting())
	typeText(view, "x.txt")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.False(t, view.Prompting())
}

func TestView_Prompt_LoadsFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Paris is the capital of France."), 0o600))

	var got []domain.RawDocument
	docs := &MockDocumentService{IngestFunc: func(_ context.Context, uploads []domain.RawDocument) (*domain.IngestResult, error) {
		got = uploads
		return &domain.IngestResult{
			Documents:  []domain.Document{{ID: "doc-1", Name: "notes.txt"}},
			ChunkCount: 1,
		}, nil
	}}
	view := NewView(nil, nil, docs)
	view.SetDimensions(100, 40)

	view.Update(runeKey('a'))
	view.pathInput.SetValue(path)
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, view.Loading())
	assert.False(t, view.Prompting())
	assert.Contains(t, view.View(), "Indexing documents...")

	msg := cmd()
	ingested, ok := msg.(messages.DocumentsIngested)
	require.True(t, ok)
	require.NoError(t, ingested.Err)
	require.Len(t, got, 1)
	assert.Equal(t, "notes.txt", got[0].Name)

	_, reload := view.Update(msg)
	assert.False(t, view.Loading())
	assert.NotNil(t, reload)
	assert.Contains(t, view.View(), "Indexed 1 document(s) into 1 chunks")
}

func TestView_Prompt_EmptyIgnored(t *testing.T) {
	view := NewView(nil, nil, &MockDocumentService{})
	view.Update(runeKey('a'))

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, view.Prompting())
}

func TestView_Prompt_MissingFile(t *testing.T) {
	view := NewView(nil, nil, &MockDocumentService{})
	view.SetDimensions(100, 40)
	view.Update(runeKey('a'))
	view.pathInput.SetValue(filepath.Join(t.TempDir(), "missing.txt"))

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	view.Update(cmd())

	assert.ErrorIs(t, view.Err(), domain.ErrInvalidInput)
	assert.False(t, view.Loading())
	assert.Contains(t, view.View(), "Error:")
}

func TestView_Prompt_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o600))

	view := NewView(nil, nil, &MockDocumentService{})
	view.SetMaxFileBytes(16)
	view.Update(runeKey('a'))
	view.pathInput.SetValue(path)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	view.Update(cmd())

	assert.ErrorIs(t, view.Err(), domain.ErrPayloadTooLarge)
}

func TestView_View_Session(t *testing.T) {
	view := NewView(nil, nil, &MockDocumentService{})
	view.SetDimensions(100, 40)

	assert.Contains(t, view.View(), "No documents loaded")

	view.Update(messages.SessionLoaded{Session: indexedSession()})
	out := view.View()

	assert.Contains(t, out, "guide.pdf")
	assert.Contains(t, out, "notes.md")
	assert.Contains(t, out, "doc-2")
	assert.Contains(t, out, "Chunks: 14")
	assert.Contains(t, out, "feature-hash-v1")
	assert.Contains(t, out, "2026-03-01 09:30:00")
}

func TestView_Reset(t *testing.T) {
	view := NewView(nil, nil, &MockDocumentService{})
	view.Update(runeKey('a'))
	view.lastResult = &domain.IngestResult{}

	view.Reset()

	assert.False(t, view.Prompting())
	assert.Nil(t, view.lastResult)
	assert.NoError(t, view.Err())
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

type stubPrompts struct {
	prompt string
	err    error
}

func (s stubPrompts) Load(string) (string, error) { return s.prompt, s.err }
func (s stubPrompts) Reload()                     {}

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	return s
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)

	s, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, s.ModelName())
}

func TestSummarise(t *testing.T) {
	var got chatRequest
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Short summary.  "}}]}`))
	})

	out, err := s.Summarise(context.Background(), "Long content.", 2)
	require.NoError(t, err)

	assert.Equal(t, "Short summary.", out)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, "at most 2 sentences")
	assert.Contains(t, got.Messages[0].Content, "Long content.")
}

func TestSummarise_UsesPromptStore(t *testing.T) {
	var got chatRequest
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	s.SetPromptStore(stubPrompts{prompt: "N=%d TEXT=%s"})
	_, err := s.Summarise(context.Background(), "abc", 3)
	require.NoError(t, err)
	assert.Equal(t, "N=3 TEXT=abc", got.Messages[0].Content)

	s.SetPromptStore(stubPrompts{err: errors.New("missing")})
	_, err = s.Summarise(context.Background(), "abc", 3)
	require.NoError(t, err)
	assert.Contains(t, got.Messages[0].Content, "at most 3 sentences")
}

func TestGenerate_NoChoices(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := s.Generate(context.Background(), "hi", driven.GenerateOptions{})
	assert.ErrorContains(t, err, "no response choices")
}

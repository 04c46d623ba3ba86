package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T, body string, check func(*http.Request)) *Reader {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	r, err := NewReader(Config{APIToken: "hf_test", BaseURL: server.URL})
	require.NoError(t, err)
	return r
}

func TestNewReader_RequiresToken(t *testing.T) {
	_, err := NewReader(Config{})
	assert.ErrorContains(t, err, "API token is required")
}

func TestAnswer_Object(t *testing.T) {
	passage := "Paris is the capital of France. Berlin is in Germany."
	r := newTestReader(t, `{"answer":"Paris","score":0.97,"start":0,"end":5}`, func(req *http.Request) {
		assert.Equal(t, "/models/"+DefaultModel, req.URL.Path)
		assert.Equal(t, "Bearer hf_test", req.Header.Get("Authorization"))

		var body qaRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "What is the capital of France?", body.Inputs.Question)
		assert.True(t, body.Parameters.HandleImpossibleAnswer)
	})

	got, err := r.Answer(context.Background(), "What is the capital of France?", passage)
	require.NoError(t, err)

	assert.True(t, got.Found)
	assert.Equal(t, "Paris", got.Text)
	assert.InDelta(t, 0.97, got.Score, 1e-9)
	assert.Equal(t, 0, got.Start)
	assert.Equal(t, 5, got.End)
	assert.Equal(t, "Paris is the capital of France.", got.SupportingSpan)
}

func TestAnswer_ArrayAndRuneOffsets(t *testing.T) {
	passage := "Café Müller opened in Zürich."
	r := newTestReader(t, `[{"answer":"Zürich","score":0.8,"start":22,"end":28}]`, nil)

	got, err := r.Answer(context.Background(), "Where did it open?", passage)
	require.NoError(t, err)

	assert.Equal(t, "Zürich", passage[got.Start:got.End])
	assert.Equal(t, passage, got.SupportingSpan)
}

func TestAnswer_BadOffsetsIgnored(t *testing.T) {
	r := newTestReader(t, `{"answer":"Paris","score":0.5,"start":3,"end":99}`, nil)

	got, err := r.Answer(context.Background(), "q", "Paris.")
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Empty(t, got.SupportingSpan)
	assert.Zero(t, got.End)
}

func TestAnswer_Impossible(t *testing.T) {
	r := newTestReader(t, `{"answer":"","score":0.9,"start":0,"end":0}`, nil)

	got, err := r.Answer(context.Background(), "q", "context")
	require.NoError(t, err)
	assert.False(t, got.Found)
}

func TestAnswer_UnexpectedPayload(t *testing.T) {
	r := newTestReader(t, `"loading"`, nil)
	_, err := r.Answer(context.Background(), "q", "c")
	assert.ErrorContains(t, err, "unexpected answer payload")
}

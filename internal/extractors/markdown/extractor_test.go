package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestExtractor_Metadata(t *testing.T) {
	e := New()
	assert.Equal(t, []string{"text/markdown", "text/x-markdown"}, e.SupportedMIMETypes())
	assert.Contains(t, e.SupportedExtensions(), ".md")
	assert.Equal(t, 50, e.Priority())
}

func TestExtract_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Name:    "/notes/geo_facts.md",
		Content: []byte("# Geography\n\nParis is the **capital** of [France](https://fr.example).\n"),
	}

	doc, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Geography\n\nParis is the capital of France.", doc.Content)
	assert.Equal(t, "Geography", doc.Metadata["title"])
	assert.Equal(t, "markdown", doc.Metadata["format"])
}

func TestExtract_TitleFallsBackToFilename(t *testing.T) {
	doc, err := New().Extract(context.Background(), &domain.RawDocument{
		Name:    "release-notes_v2.md",
		Content: []byte("No heading here."),
	})
	require.NoError(t, err)
	assert.Equal(t, "release notes v2", doc.Metadata["title"])
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced code removed", "Before.\n```go\nfmt.Println()\n```\nAfter.", "Before.\n\nAfter."},
		{"inline code kept", "Run `docqa serve` now.", "Run docqa serve now."},
		{"image alt kept", "![diagram](d.png) shows it.", "diagram shows it."},
		{"list markers", "- one\n* two\n1. three", "one\ntwo\nthree"},
		{"blockquote", "> quoted text", "quoted text"},
		{"emphasis", "an _important_ and *bold* word", "an important and bold word"},
		{"html tags", "a <br/> b", "a  b"},
		{"horizontal rule", "above\n---\nbelow", "above\n\nbelow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.in))
		})
	}
}

func TestExtract_Nil(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestExtractor_Metadata(t *testing.T) {
	e := New()
	assert.Contains(t, e.SupportedMIMETypes(), "text/plain")
	assert.Contains(t, e.SupportedExtensions(), ".txt")
	assert.Equal(t, 5, e.Priority())
}

func TestExtract_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "capital_cities-notes.txt",
		MIMEType: "text/plain",
		Content:  []byte("\ufeffParis is the capital of France."),
	}

	doc, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Paris is the capital of France.", doc.Content)
	assert.Equal(t, "capital_cities-notes.txt", doc.Name)
	assert.Equal(t, "capital cities notes", doc.Metadata["title"])
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestExtract_InvalidUTF8(t *testing.T) {
	doc, err := New().Extract(context.Background(), &domain.RawDocument{Content: []byte{'o', 'k', 0xff}})
	require.NoError(t, err)
	assert.Equal(t, "ok\ufffd", doc.Content)
}

func TestExtract_Nil(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

type stubExtractor struct {
	mimes    []string
	exts     []string
	priority int
	content  string
	err      error
	calls    int
}

func (s *stubExtractor) SupportedMIMETypes() []string  { return s.mimes }
func (s *stubExtractor) SupportedExtensions() []string { return s.exts }
func (s *stubExtractor) Priority() int                 { return s.priority }

func (s *stubExtractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Document{Name: raw.Name, Content: s.content}, nil
}

func TestRegistry_PrefersHigherPriority(t *testing.T) {
	low := &stubExtractor{mimes: []string{"text/plain"}, priority: 5, content: "low"}
	high := &stubExtractor{mimes: []string{"text/plain"}, priority: 50, content: "high"}

	r := NewRegistry()
	r.Register(low)
	r.Register(high)

	doc, err := r.Extract(context.Background(), &domain.RawDocument{MIMEType: "text/plain; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, "high", doc.Content)
	assert.Equal(t, 0, low.calls)
}

func TestRegistry_FallsBackToExtension(t *testing.T) {
	md := &stubExtractor{exts: []string{".md"}, content: "markdown"}
	r := NewRegistry()
	r.Register(md)

	for _, mt := range []string{"", "application/octet-stream", "application/x-unknown"} {
		doc, err := r.Extract(context.Background(), &domain.RawDocument{Name: "README.MD", MIMEType: mt})
		require.NoError(t, err, mt)
		assert.Equal(t, "markdown", doc.Content)
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Extract(context.Background(), &domain.RawDocument{Name: "image.png", MIMEType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRegistry_NoTextExtracted(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Extract(context.Background(), &domain.RawDocument{
		Name:     "blank.txt",
		MIMEType: "text/plain",
		Content:  []byte(" \n\t "),
	})
	assert.ErrorIs(t, err, domain.ErrNoTextExtracted)
}

func TestRegistry_WrapsExtractorError(t *testing.T) {
	boom := errors.New("corrupt")
	r := NewRegistry()
	r.Register(&stubExtractor{mimes: []string{"application/pdf"}, err: boom})

	_, err := r.Extract(context.Background(), &domain.RawDocument{Name: "a.pdf", MIMEType: "application/pdf"})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "extract a.pdf")
}

func TestRegistry_Nil(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry_Extensions(t *testing.T) {
	exts := NewDefaultRegistry().SupportedExtensions()
	for _, want := range []string{".pdf", ".docx", ".html", ".htm", ".md", ".txt"} {
		assert.Contains(t, exts, want)
	}
}

func TestDefaultRegistry_PlainText(t *testing.T) {
	doc, err := NewDefaultRegistry().Extract(context.Background(), &domain.RawDocument{
		Name:    "notes.txt",
		Content: []byte("Paris is the capital of France."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", doc.Content)
}

func TestDefaultRegistry_HTML(t *testing.T) {
	r := NewDefaultRegistry()
	for _, raw := range []*domain.RawDocument{
		{Name: "page.htm", Content: []byte("<p>Paris is the capital of France.</p>")},
		{Name: "upload", MIMEType: "text/html; charset=utf-8", Content: []byte("<p>Paris is the capital of France.</p>")},
	} {
		doc, err := r.Extract(context.Background(), raw)
		require.NoError(t, err, raw.Name)
		assert.Equal(t, "Paris is the capital of France.", doc.Content)
		assert.Equal(t, "html", doc.Metadata["format"])
	}
}

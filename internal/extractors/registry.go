package extractors

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors/docx"
	"github.com/custodia-labs/docqa/internal/extractors/html"
	"github.com/custodia-labs/docqa/internal/extractors/markdown"
	"github.com/custodia-labs/docqa/internal/extractors/pdf"
	"github.com/custodia-labs/docqa/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects a TextExtractor for each upload.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.TextExtractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry with the PDF, DOCX, HTML, Markdown
// and plain text extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
	return r
}

// Register adds an extractor to the registry.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, extractor)
	sort.SliceStable(r.extractors, func(i, j int) bool {
		return r.extractors[i].Priority() > r.extractors[j].Priority()
	})
}

// SupportedExtensions returns all extensions that can be extracted, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range r.extractors {
		for _, ext := range e.SupportedExtensions() {
			seen[ext] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for ext := range seen {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract runs the best matching extractor over raw.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	extractor := r.lookup(raw)
	if extractor == nil {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFormat, raw.Name, raw.MIMEType)
	}

	doc, err := extractor.Extract(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", raw.Name, err)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoTextExtracted, raw.Name)
	}
	return doc, nil
}

func (r *Registry) lookup(raw *domain.RawDocument) driven.TextExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mt := baseMIMEType(raw.MIMEType); mt != "" {
		for _, e := range r.extractors {
			if contains(e.SupportedMIMETypes(), mt) {
				return e
			}
		}
	}
	ext := strings.ToLower(filepath.Ext(raw.Name))
	if ext == "" {
		return nil
	}
	for _, e := range r.extractors {
		if contains(e.SupportedExtensions(), ext) {
			return e
		}
	}
	return nil
}

// baseMIMEType strips parameters and lowercases. Generic binary types are
// treated as absent so the extension decides.
func baseMIMEType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(v, ";", 2)[0]))
	}
	if mt == "application/octet-stream" {
		return ""
	}
	return mt
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

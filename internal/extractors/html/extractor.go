// Package html extracts readable text from HTML and XHTML uploads.
package html

import (
	"context"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// hidden elements are removed with their content, innermost kinds first so
// a <style> inside <head> cannot end the <head> match early.
var hidden = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`),
	regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`),
	regexp.MustCompile(`(?is)<noscript\b[^>]*>.*?</noscript>`),
	regexp.MustCompile(`(?is)<template\b[^>]*>.*?</template>`),
	regexp.MustCompile(`(?is)<svg\b[^>]*>.*?</svg>`),
	regexp.MustCompile(`(?is)<head\b[^>]*>.*?</head>`),
}

var (
	titleTag   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	comments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockTags  = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article|header|footer|nav|dd|dt)\b[^>]*>`)
	lineBreaks = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	anyTag     = regexp.MustCompile(`<[^>]+>`)
	spaceRun   = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract strips markup and keeps the visible text, one block per line.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	source := string(raw.Content)

	return &domain.Document{
		ID:       uuid.New().String(),
		Name:     raw.Name,
		MIMEType: raw.MIMEType,
		Content:  Strip(source),
		Metadata: map[string]any{
			"format": "html",
			"title":  title(source, raw.Name),
		},
		CreatedAt: time.Now(),
	}, nil
}

// Strip converts HTML to plain text. Entities are decoded after tags are
// removed so an escaped "&lt;p&gt;" survives as text.
func Strip(content string) string {
	for _, re := range hidden {
		content = re.ReplaceAllString(content, "")
	}
	content = comments.ReplaceAllString(content, "")
	content = blockTags.ReplaceAllString(content, "\n")
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = spaceRun.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// title returns the <title> text or a title derived from the filename.
func title(content, name string) string {
	if m := titleTag.FindStringSubmatch(content); m != nil {
		if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
			return t
		}
	}
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}

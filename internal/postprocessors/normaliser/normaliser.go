// Package normaliser cleans extracted text before chunking.
package normaliser

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// A lowercase letter glued to an uppercase one usually marks a sentence
	// boundary lost during PDF extraction ("endStart").
	gluedBoundary = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	periodRun     = regexp.MustCompile(`\.{2,}`)
	disallowed    = regexp.MustCompile(`[^\p{L}\p{N} .,;:?!\-]`)
)

// Normalize returns text with whitespace collapsed, glued sentence boundaries
// split, repeated periods collapsed, and every character outside letters,
// digits, spaces and basic punctuation removed.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	out := whitespaceRun.ReplaceAllString(text, " ")
	out = gluedBoundary.ReplaceAllString(out, "$1. $2")
	out = periodRun.ReplaceAllString(out, ".")
	out = disallowed.ReplaceAllString(out, "")
	out = whitespaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Processor is the pipeline stage that normalises Document.Content in place.
// It implements the PostProcessor interface.
type Processor struct{}

// New creates a normaliser processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "normaliser"
}

// Process rewrites the document content and passes chunks through unchanged.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	doc.Content = Normalize(doc.Content)
	return chunks, nil
}

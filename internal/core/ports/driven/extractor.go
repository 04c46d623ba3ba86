package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// TextExtractor turns uploaded bytes into plain text.
// Each extractor handles specific MIME types (e.g., PDF, DOCX).
type TextExtractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns file extensions (with dot) this extractor
	// handles when the MIME type is missing or generic.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Extract returns a Document with Content populated.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// ExtractorRegistry selects the appropriate extractor for an upload.
type ExtractorRegistry interface {
	// Extract runs the best matching extractor. It fails with
	// domain.ErrUnsupportedFormat when none matches and
	// domain.ErrNoTextExtracted when the result is blank.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Register adds an extractor to the registry.
	Register(extractor TextExtractor)

	// SupportedExtensions returns all extensions that can be extracted.
	SupportedExtensions() []string
}

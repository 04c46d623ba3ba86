package domain

import "time"

// Document is one uploaded file after text extraction.
// It is transient and owned by the document session that processed it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the original filename or URI.
	Name string

	// MIMEType is the detected content type of the upload.
	MIMEType string

	// Content is the extracted text. The pipeline normalises it in place
	// before chunking.
	Content string

	// Metadata contains extractor-specific key-value pairs (page count, title).
	Metadata map[string]any

	// CreatedAt is when the document was extracted.
	CreatedAt time.Time
}

// Chunk is a bounded-length span of a document used as the retrieval unit.
// Chunks are immutable after creation.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the session, in document order.
	Position int

	// WordCount is the number of whitespace-separated words in Content.
	WordCount int
}

package domain

// RawDocument is an upload before text extraction.
type RawDocument struct {
	// Name is the client-supplied filename or a filesystem path.
	Name string

	// MIMEType is the declared content type (e.g., "application/pdf").
	// Extractors fall back to the file extension when it is empty.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

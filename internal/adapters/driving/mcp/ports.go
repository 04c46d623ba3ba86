package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// QA answers questions against the current session.
	QA driving.QAService

	// Document ingests files and reports the session.
	Document driving.DocumentService

	// Summary condenses text. Optional; the summarize tool is omitted without it.
	Summary driving.SummaryService

	// MaxFileBytes bounds each file read by ingest_file. Zero disables the check.
	MaxFileBytes int64
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.QA == nil {
		return ErrMissingQAService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}

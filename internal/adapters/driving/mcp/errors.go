// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants ingest local documents and ask questions about them.
package mcp

import "errors"

var (
	// ErrMissingQAService is returned when the QA service is not provided.
	ErrMissingQAService = errors.New("mcp: qa service is required")

	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")
)

// Package tui provides an interactive terminal user interface for docqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// QA answers questions against the session.
	QA driving.QAService

	// Document owns the session and ingests new files.
	Document driving.DocumentService

	// Settings manages application settings. Optional; the settings view
	// reports it as unavailable when nil.
	Settings driving.SettingsService

	// MaxFileBytes caps each file loaded from the session view.
	// Zero means no limit.
	MaxFileBytes int64
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(qa driving.QAService, docs driving.DocumentService, settings driving.SettingsService) *Ports {
	return &Ports{
		QA:       qa,
		Document: docs,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.QA == nil {
		return ErrMissingQAService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}

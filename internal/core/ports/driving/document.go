package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentService owns the current document session: the uploaded
// documents and the embedding index built from them.
type DocumentService interface {
	// Ingest extracts, normalises and chunks the uploads, then replaces the
	// index with one built from all of them.
	Ingest(ctx context.Context, uploads []domain.RawDocument) (*domain.IngestResult, error)

	// Current returns a summary of the active session.
	Current() domain.SessionInfo
}

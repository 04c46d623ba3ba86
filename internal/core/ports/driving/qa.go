package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QAService answers questions against the current document session.
type QAService interface {
	// Ask runs retrieval, answer extraction and consistency checks.
	// Failures are returned as *domain.RequestError.
	Ask(ctx context.Context, query domain.Query) (*domain.Answer, error)
}

// SummaryService summarises free text.
type SummaryService interface {
	// Summarise condenses text to at most maxSentences sentences.
	// A non-positive maxSentences uses the default.
	Summarise(ctx context.Context, text string, maxSentences int) (string, error)
}

// HealthService reports oracle reachability and session state.
type HealthService interface {
	// Check pings every configured oracle.
	Check(ctx context.Context) domain.HealthReport
}

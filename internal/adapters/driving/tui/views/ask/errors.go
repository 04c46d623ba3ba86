package ask

import "errors"

// Error definitions for the ask view.
var (
	// ErrNoQAService indicates that no QA service was provided.
	ErrNoQAService = errors.New("QA service is required")
)

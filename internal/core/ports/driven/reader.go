package driven

import "context"

// AnswerOracle is the extractive question-answering model.
// It selects a span of the context that answers the question.
type AnswerOracle interface {
	// Answer extracts an answer span. A missing answer is reported through
	// ReaderResult.Found, not an error; errors mean the oracle itself failed.
	Answer(ctx context.Context, question, context string) (ReaderResult, error)

	// ModelName returns the name of the QA model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ReaderResult is the typed output of an AnswerOracle.
type ReaderResult struct {
	// Found is false when the model declined to answer.
	Found bool

	// Text is the extracted answer span.
	Text string

	// Score is the model's confidence in [0, 1].
	Score float64

	// Start and End are byte offsets of Text within the context, when known.
	// Both are zero when the oracle does not report offsets.
	Start int
	End   int

	// SupportingSpan is the passage (typically the sentence) containing Text.
	SupportingSpan string
}

// EntityExtractor finds named entities in text.
type EntityExtractor interface {
	// Entities returns the distinct entity surface strings found in text.
	Entities(ctx context.Context, text string) ([]string, error)

	// ModelName returns the name of the NER model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answer pipeline is split into stages that are each usable on their
// own: EmbeddingIndex, Retriever, AnswerExtractor and ConsistencyChecker.
// QAService composes them and is the single place where stage failures
// become a *domain.RequestError.
package services

package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyInput indicates there was no text to work with after trimming.
	ErrEmptyInput = errors.New("empty input")

	// ErrInputTooLong indicates a question or context exceeded its character limit.
	ErrInputTooLong = errors.New("input too long")

	// ErrSuspectedInjection indicates the question matched the injection denylist.
	ErrSuspectedInjection = errors.New("suspected injection")

	// ErrPayloadTooLarge indicates an upload exceeded the configured size limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrEmptyIndex indicates a search ran before any document was indexed.
	ErrEmptyIndex = errors.New("index is empty")

	// Text extraction errors.

	// ErrUnsupportedFormat indicates no extractor handles the uploaded file type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNoTextExtracted indicates the file was readable but contained no text.
	ErrNoTextExtracted = errors.New("no text extracted")

	// ErrIngestInProgress indicates another document is currently being indexed.
	ErrIngestInProgress = errors.New("ingest in progress")

	// Oracle errors.

	// ErrOracleUnavailable indicates a model oracle could not be reached or failed.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrOracleTimeout indicates a model oracle did not answer before its deadline.
	ErrOracleTimeout = errors.New("oracle timeout")

	// ErrIndexBuild indicates the embedding index could not be built.
	// The previously active index, if any, is left in place.
	ErrIndexBuild = errors.New("index build failed")

	// ErrDimensionMismatch indicates an embedding had an unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Indexing and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Summaries fall back to the local frequency summariser.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRateLimited indicates the caller exceeded its request budget.
	ErrRateLimited = errors.New("rate limited")
)

// ErrorKind classifies an error for the outer surfaces.
type ErrorKind string

// Error kinds.
const (
	// KindValidation is a problem with the caller's input.
	KindValidation ErrorKind = "validation"

	// KindConflict is a request that clashes with work already running.
	KindConflict ErrorKind = "conflict"

	// KindRateLimited is a request rejected by the rate limiter.
	KindRateLimited ErrorKind = "rate_limited"

	// KindTooLarge is a request body over the size limit.
	KindTooLarge ErrorKind = "too_large"

	// KindOracle is a failure of a model oracle or the index it feeds.
	KindOracle ErrorKind = "oracle"

	// KindInternal is anything unexpected.
	KindInternal ErrorKind = "internal"
)

// OracleError wraps a failure from one of the model oracles.
type OracleError struct {
	// Oracle names the failing oracle (embedding, reader, entity, llm).
	Oracle string

	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *OracleError) Error() string {
	return fmt.Sprintf("%s oracle: %v", e.Oracle, e.Err)
}

// Unwrap returns the underlying error.
func (e *OracleError) Unwrap() error {
	return e.Err
}

// Is reports every oracle failure as ErrOracleUnavailable.
func (e *OracleError) Is(target error) bool {
	return target == ErrOracleUnavailable
}

// NewOracleError wraps err as a failure of the named oracle.
// Deadline expiry is normalised to ErrOracleTimeout.
func NewOracleError(oracle string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrOracleTimeout) {
		err = fmt.Errorf("%w: %w", ErrOracleTimeout, err)
	}
	return &OracleError{Oracle: oracle, Err: err}
}

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	var (
		oracleErr *OracleError
		reqErr    *RequestError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &reqErr):
		return reqErr.Kind
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrPayloadTooLarge):
		return KindTooLarge
	case errors.Is(err, ErrIngestInProgress):
		return KindConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrInputTooLong),
		errors.Is(err, ErrSuspectedInjection),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrNoTextExtracted),
		errors.Is(err, ErrEmptyIndex):
		return KindValidation
	case errors.As(err, &oracleErr),
		errors.Is(err, ErrOracleUnavailable),
		errors.Is(err, ErrOracleTimeout),
		errors.Is(err, ErrIndexBuild),
		errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, ErrEmbeddingUnavailable):
		return KindOracle
	default:
		return KindInternal
	}
}

// RequestError is the single response-level error produced by the QA
// orchestrator and the document service. Message is safe to show callers.
type RequestError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements error.
func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// genericInternalMessage is shown for unexpected failures.
const genericInternalMessage = "an internal error occurred"

// NewRequestError maps a stage failure to a RequestError.
// Internal failures get a generic message so details never leak.
func NewRequestError(err error) *RequestError {
	if err == nil {
		return nil
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	kind := KindOf(err)
	msg := err.Error()
	switch kind {
	case KindOracle:
		msg = "service degraded: " + oracleMessage(err)
	case KindInternal:
		msg = genericInternalMessage
	}
	return &RequestError{Kind: kind, Message: msg, Err: err}
}

func oracleMessage(err error) string {
	var oracleErr *OracleError
	switch {
	case errors.Is(err, ErrOracleTimeout):
		if errors.As(err, &oracleErr) {
			return oracleErr.Oracle + " oracle timed out"
		}
		return "oracle timed out"
	case errors.As(err, &oracleErr):
		return oracleErr.Oracle + " oracle unavailable"
	case errors.Is(err, ErrIndexBuild):
		return "index build failed"
	default:
		return "oracle unavailable"
	}
}

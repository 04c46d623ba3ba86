package domain

import "fmt"

// NoAnswerText is returned when the reader finds no answer in the context.
const NoAnswerText = "No answer found in the provided context."

// Query is a question posed against the current document session.
type Query struct {
	// Question is the natural-language question.
	Question string

	// Context is optional caller-supplied context. When set it is used
	// verbatim instead of retrieving passages from the index.
	Context string

	// TopK overrides the number of retrieved passages. Zero uses the default.
	TopK int
}

// Source records which chunk contributed to an answer's context.
type Source struct {
	ChunkID  string  `json:"chunk_id"`
	Position int     `json:"position"`
	Distance float64 `json:"distance"`
}

// Retrieval is the output of the retriever: ranked chunks plus the
// concatenated context handed to the reader.
type Retrieval struct {
	Context string
	Sources []Source
}

// Answer is the final structured response to a Query.
type Answer struct {
	// Text is the extracted answer, or NoAnswerText.
	Text string `json:"answer"`

	// Confidence is the reader's score in [0, 1].
	Confidence float64 `json:"confidence"`

	// SupportingContext is the passage the answer was drawn from, when known.
	SupportingContext string `json:"supporting_context,omitempty"`

	// Context is the retrieval context the reader saw.
	Context string `json:"context,omitempty"`

	// Sources lists the retrieved chunks in rank order.
	Sources []Source `json:"sources,omitempty"`

	// Warnings holds advisory findings about the answer.
	Warnings []Warning `json:"warnings"`
}

// Found reports whether the reader produced an answer.
func (a *Answer) Found() bool {
	return a.Text != NoAnswerText
}

// HasWarning reports whether a warning of the given kind is attached.
func (a *Answer) HasWarning(kind WarningKind) bool {
	for _, w := range a.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// WarningKind identifies the variant of a Warning.
type WarningKind string

// Warning kinds.
const (
	// WarningHallucination means the answer names entities absent from the context.
	WarningHallucination WarningKind = "hallucination"

	// WarningLowConfidence means the reader's score fell below the threshold.
	WarningLowConfidence WarningKind = "low_confidence"

	// WarningSemanticInconsistency means the answer embedding is far from the
	// context (or supporting span) embedding.
	WarningSemanticInconsistency WarningKind = "semantic_inconsistency"

	// WarningInjectionSuspected means the question matched the injection
	// denylist and the policy allowed it through.
	WarningInjectionSuspected WarningKind = "injection_suspected"
)

// Scopes for semantic inconsistency warnings.
const (
	ScopeContext    = "context"
	ScopeSupporting = "supporting"
)

// Warning is an advisory finding attached to an Answer.
// Only the fields relevant to Kind are populated.
type Warning struct {
	Kind       WarningKind `json:"type"`
	Message    string      `json:"message"`
	Entities   []string    `json:"entities,omitempty"`
	Score      float64     `json:"score,omitempty"`
	Similarity float64     `json:"similarity,omitempty"`
	Scope      string      `json:"scope,omitempty"`
}

// HallucinationWarning reports answer entities missing from the context.
func HallucinationWarning(entities []string) Warning {
	return Warning{
		Kind:     WarningHallucination,
		Message:  fmt.Sprintf("answer mentions %d entities not found in the context", len(entities)),
		Entities: entities,
	}
}

// LowConfidenceWarning reports a reader score below threshold.
func LowConfidenceWarning(score float64) Warning {
	return Warning{
		Kind:    WarningLowConfidence,
		Message: fmt.Sprintf("low confidence answer (%.2f)", score),
		Score:   score,
	}
}

// SemanticInconsistencyWarning reports a low cosine similarity for scope.
func SemanticInconsistencyWarning(similarity float64, scope string) Warning {
	return Warning{
		Kind:       WarningSemanticInconsistency,
		Message:    fmt.Sprintf("answer is semantically distant from the %s (%.2f)", scope, similarity),
		Similarity: similarity,
		Scope:      scope,
	}
}

// InjectionSuspectedWarning reports a question that matched the denylist.
func InjectionSuspectedWarning(reason string) Warning {
	return Warning{
		Kind:    WarningInjectionSuspected,
		Message: "question contains suspicious input: " + reason,
	}
}

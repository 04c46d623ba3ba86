// Package lexical provides an offline extractive reader. It picks the
// context sentence with the highest content-word overlap with the question
// and answers with the longest run of words in it that the question does
// not already contain.
package lexical

import (
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/textutil"
)

// Ensure Reader implements the interface.
var _ driven.AnswerOracle = (*Reader)(nil)

// ModelName identifies this reader in health reports.
const ModelName = "lexical-span-v1"

// Reader is the built-in AnswerOracle.
type Reader struct{}

// New creates a lexical reader.
func New() *Reader {
	return &Reader{}
}

// Answer extracts a span of passage that answers question.
// The score is the fraction of the question's content words found in the
// chosen sentence.
func (r *Reader) Answer(ctx context.Context, question, passage string) (driven.ReaderResult, error) {
	if err := ctx.Err(); err != nil {
		return driven.ReaderResult{}, err
	}

	asked := make(map[string]struct{})
	for _, tok := range textutil.ContentTokens(question) {
		asked[tok] = struct{}{}
	}
	if len(asked) == 0 {
		return driven.ReaderResult{}, nil
	}

	var (
		best      textutil.Span
		bestScore float64
	)
	for _, sp := range textutil.SentenceSpans(passage) {
		score := overlap(asked, passage[sp.Start:sp.End])
		if score > bestScore {
			best, bestScore = sp, score
		}
	}
	if bestScore == 0 {
		return driven.ReaderResult{}, nil
	}

	sentence := passage[best.Start:best.End]
	start, end, ok := novelRun(sentence, asked)
	if !ok {
		return driven.ReaderResult{}, nil
	}

	return driven.ReaderResult{
		Found:          true,
		Text:           sentence[start:end],
		Score:          bestScore,
		Start:          best.Start + start,
		End:            best.Start + end,
		SupportingSpan: sentence,
	}, nil
}

// overlap is the fraction of asked tokens present in sentence.
func overlap(asked map[string]struct{}, sentence string) float64 {
	seen := make(map[string]struct{})
	for _, tok := range textutil.Tokens(sentence) {
		if _, ok := asked[tok]; ok {
			seen[tok] = struct{}{}
		}
	}
	return float64(len(seen)) / float64(len(asked))
}

// novelRun finds the longest run of consecutive words in sentence that are
// neither stopwords nor question words. Ties go to the earliest run.
func novelRun(sentence string, asked map[string]struct{}) (start, end int, ok bool) {
	spans := textutil.WordSpans(sentence)

	bestLen, runLen, runStart := 0, 0, 0
	for i, sp := range spans {
		tok := strings.ToLower(sentence[sp.Start:sp.End])
		_, isAsked := asked[tok]
		if isAsked || textutil.IsStopword(tok) {
			runLen = 0
			continue
		}
		if runLen == 0 {
			runStart = i
		}
		runLen++
		if runLen > bestLen {
			bestLen = runLen
			start, end = spans[runStart].Start, sp.End
		}
	}
	return start, end, bestLen > 0
}

// ModelName returns the reader's name.
func (r *Reader) ModelName() string {
	return ModelName
}

// Ping always succeeds; the reader runs in process.
func (r *Reader) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (r *Reader) Close() error {
	return nil
}

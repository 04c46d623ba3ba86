// Package heuristic finds entity-like spans without a model: runs of
// capitalised words and numbers.
package heuristic

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/textutil"
)

// Ensure Extractor implements the interface.
var _ driven.EntityExtractor = (*Extractor)(nil)

// ModelName identifies this extractor in settings and health output.
const ModelName = "capitalised-span-v1"

// wordRe matches word-like tokens, keeping inner apostrophes and hyphens.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['\-][\p{L}\p{N}]+)*`)

// Extractor groups adjacent capitalised words into entities. Numbers stand
// alone. Words separated by anything other than spaces start a new entity.
type Extractor struct{}

// New creates a heuristic extractor.
func New() *Extractor {
	return &Extractor{}
}

// Entities returns distinct entities in order of first appearance.
func (e *Extractor) Entities(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		out     []string
		seen    = make(map[string]struct{})
		current []string
		lastEnd = -1
	)
	flush := func() {
		for len(current) > 0 && isFunctionWord(current[0]) {
			current = current[1:]
		}
		if len(current) > 0 {
			entity := strings.Join(current, " ")
			if _, ok := seen[entity]; !ok {
				seen[entity] = struct{}{}
				out = append(out, entity)
			}
		}
		current = current[:0]
	}

	for _, loc := range wordRe.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		adjacent := lastEnd >= 0 && onlySpaces(text[lastEnd:loc[0]])
		lastEnd = loc[1]

		switch {
		case isNumber(word):
			flush()
			current = append(current, word)
			flush()
		case isCapitalised(word):
			if !adjacent {
				flush()
			}
			current = append(current, word)
		default:
			flush()
		}
	}
	flush()
	return out, nil
}

// isFunctionWord reports words that are only capitalised because they start
// a sentence, such as "The" or "What".
func isFunctionWord(word string) bool {
	lower := strings.ToLower(word)
	return textutil.IsStopword(lower) || textutil.IsQuestionWord(lower)
}

func isCapitalised(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}

func isNumber(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return word != ""
}

func onlySpaces(s string) bool {
	return strings.Trim(s, " ") == ""
}

// ModelName returns the extractor identifier.
func (e *Extractor) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (e *Extractor) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (e *Extractor) Close() error {
	return nil
}

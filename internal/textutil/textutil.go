// Package textutil holds the tokenisation shared by the built-in oracles,
// the summariser and the chunker.
package textutil

import (
	"regexp"
	"strings"
)

var (
	tokenPattern    = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// Tokens returns the lowercased word tokens of text.
func Tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Words returns the original-case word tokens of text.
func Words(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// Sentences splits text on terminal punctuation. Trailing text without a
// terminator is returned as its own sentence. Blank fragments are dropped.
func Sentences(text string) []string {
	spans := SentenceSpans(text)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = text[sp.Start:sp.End]
	}
	return out
}

// Span is a half-open byte range [Start, End) of a text.
type Span struct {
	Start, End int
}

// WordSpans returns the byte ranges of the word tokens of text.
func WordSpans(text string) []Span {
	return toSpans(tokenPattern.FindAllStringIndex(text, -1))
}

// SentenceSpans returns the byte ranges of the sentences of text, trimmed of
// surrounding whitespace. Slicing text with them gives Sentences(text).
func SentenceSpans(text string) []Span {
	var out []Span
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		for start < end && isSpace(text[start]) {
			start++
		}
		for end > start && isSpace(text[end-1]) {
			end--
		}
		if start < end {
			out = append(out, Span{Start: start, End: end})
		}
	}
	return out
}

// SentenceAt returns the sentence of text that contains byte offset pos.
// It returns "" when pos falls outside every sentence.
func SentenceAt(text string, pos int) string {
	for _, sp := range SentenceSpans(text) {
		if pos >= sp.Start && pos < sp.End {
			return text[sp.Start:sp.End]
		}
	}
	return ""
}

func toSpans(locs [][]int) []Span {
	out := make([]Span, len(locs))
	for i, loc := range locs {
		out[i] = Span{Start: loc[0], End: loc[1]}
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

// IsStopword reports whether the lowercased token carries no content.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// IsQuestionWord reports whether the lowercased token is an interrogative.
func IsQuestionWord(token string) bool {
	_, ok := questionWords[token]
	return ok
}

// ContentTokens returns the lowercased tokens of text that are neither
// stopwords nor interrogatives.
func ContentTokens(text string) []string {
	toks := Tokens(text)
	out := toks[:0]
	for _, t := range toks {
		if IsStopword(t) || IsQuestionWord(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

var questionWords = toSet(
	"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
)

var stopwords = toSet(
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on",
	"at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its",
	"this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further",
	"than", "so", "such", "into", "about", "between", "through", "during", "before", "after",
	"above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don",
	"should", "now", "do", "does", "did", "has", "have", "had", "i", "you", "he", "she", "we",
	"they", "me", "him", "her", "us", "them", "my", "your", "his", "our", "their", "not", "no",
	"there", "here", "also", "all", "any", "some", "each", "which", "who", "what",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

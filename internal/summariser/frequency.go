// Package summariser provides the offline extractive summariser used when no
// LLM is configured.
package summariser

import (
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/docqa/internal/textutil"
)

// DefaultMaxSentences is used when the caller does not ask for a length.
const DefaultMaxSentences = 5

// Frequency ranks sentences by the normalised frequency of their content
// words and returns the best ones in document order.
type Frequency struct{}

// NewFrequency creates a frequency summariser.
func NewFrequency() *Frequency {
	return &Frequency{}
}

// Summarise returns at most maxSentences sentences of text.
func (f *Frequency) Summarise(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sentences := textutil.Sentences(text)
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " ")
	}

	freq := make(map[string]float64)
	tokens := make([][]string, len(sentences))
	for i, s := range sentences {
		tokens[i] = textutil.Tokens(s)
		for _, tok := range tokens[i] {
			if !textutil.IsStopword(tok) {
				freq[tok]++
			}
		}
	}
	var peak float64
	for _, v := range freq {
		peak = math.Max(peak, v)
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i := range sentences {
		var score float64
		for _, tok := range tokens[i] {
			score += freq[tok] / peak
		}
		if n := len(tokens[i]); n > 0 {
			// Damp long sentences without ignoring their extra content.
			score /= math.Sqrt(float64(n))
		}
		ranked[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	picked := make([]int, maxSentences)
	for i := range picked {
		picked[i] = ranked[i].idx
	}
	sort.Ints(picked)

	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

// Package chunker splits normalised text into sentence-aligned, word-bounded chunks.
package chunker

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/textutil"
)

// DefaultChunkSize is the default maximum number of words per chunk.
const DefaultChunkSize = 200

type sentence struct {
	text  string
	words int
}

// Split returns the chunks of text in document order.
//
// Sentences are packed greedily while the word count stays within maxTokens.
// When a sentence does not fit, the chunk is closed and the next one starts
// with the closed chunk's last sentence followed by the new sentence; the
// carried sentence is dropped if the pair would exceed maxTokens. A single
// sentence longer than maxTokens is emitted as consecutive maxTokens-word
// windows with no carry-over.
//
// The returned sequence can be ranged over more than once.
func Split(text string, maxTokens int) (iter.Seq[string], error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	}

	var (
		sentences []sentence
		total     int
	)
	for _, s := range textutil.Sentences(text) {
		n := len(strings.Fields(s))
		sentences = append(sentences, sentence{text: s, words: n})
		total += n
	}
	if total == 0 {
		return nil, domain.ErrEmptyInput
	}

	return func(yield func(string) bool) {
		var (
			current []sentence
			words   int
		)
		emit := func() bool {
			if len(current) == 0 {
				return true
			}
			return yield(join(current))
		}

		for _, s := range sentences {
			if s.words > maxTokens {
				if !emit() {
					return
				}
				current, words = nil, 0
				fields := strings.Fields(s.text)
				for i := 0; i < len(fields); i += maxTokens {
					if !yield(strings.Join(fields[i:min(i+maxTokens, len(fields))], " ")) {
						return
					}
				}
				continue
			}

			if words+s.words <= maxTokens {
				current = append(current, s)
				words += s.words
				continue
			}

			last := current[len(current)-1]
			if !emit() {
				return
			}
			if last.words+s.words <= maxTokens {
				current, words = []sentence{last, s}, last.words+s.words
			} else {
				current, words = []sentence{s}, s.words
			}
		}
		emit()
	}, nil
}

func join(sentences []sentence) string {
	parts := make([]string, len(sentences))
	for i, s := range sentences {
		parts[i] = s.text
	}
	return strings.Join(parts, " ")
}

// Processor turns document content into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum words per chunk.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Positions are local to the document.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	seq, err := Split(doc.Content, p.chunkSize)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for text := range seq {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    text,
			Position:   len(chunks),
			WordCount:  len(strings.Fields(text)),
		})
	}
	return chunks, nil
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/summariser"
)

// Ensure SummaryService implements the interface.
var _ driving.SummaryService = (*SummaryService)(nil)

// SummaryService summarises text with the LLM when one is configured and
// the local frequency summariser otherwise.
type SummaryService struct {
	llm      driven.LLMService
	fallback *summariser.Frequency
	maxChars int
	timeout  time.Duration
}

// NewSummaryService creates a summary service. llm may be nil.
func NewSummaryService(llm driven.LLMService, maxChars int, timeout time.Duration) *SummaryService {
	if maxChars <= 0 {
		maxChars = domain.DefaultAppSettings().QA.MaxContextChars
	}
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &SummaryService{
		llm:      llm,
		fallback: summariser.NewFrequency(),
		maxChars: maxChars,
		timeout:  timeout,
	}
}

// Summarise condenses text to at most maxSentences sentences.
// If the LLM fails, the local summariser answers instead.
func (s *SummaryService) Summarise(ctx context.Context, text string, maxSentences int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewRequestError(fmt.Errorf("context: %w", domain.ErrEmptyInput))
	}
	if n := len([]rune(text)); n > s.maxChars {
		return "", domain.NewRequestError(fmt.Errorf("context has %d characters, limit is %d: %w",
			n, s.maxChars, domain.ErrInputTooLong))
	}
	if maxSentences <= 0 {
		maxSentences = summariser.DefaultMaxSentences
	}

	if s.llm != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		summary, err := s.llm.Summarise(callCtx, text, maxSentences)
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary), nil
		}
		if err != nil {
			logger.Warn("LLM summary failed, using frequency summariser: %v", domain.NewOracleError("llm", err))
		}
	}
	return s.fallback.Summarise(text, maxSentences), nil
}

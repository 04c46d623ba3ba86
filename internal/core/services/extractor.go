package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/textutil"
)

// ExtractorConfig holds the answer extractor's limits and policy.
type ExtractorConfig struct {
	MaxQuestionChars       int
	MaxContextChars        int
	LowConfidenceThreshold float64
	InjectionPolicy        domain.InjectionPolicy
	OracleTimeout          time.Duration
}

func (c ExtractorConfig) withDefaults() ExtractorConfig {
	d := domain.DefaultAppSettings().QA
	if c.MaxQuestionChars <= 0 {
		c.MaxQuestionChars = d.MaxQuestionChars
	}
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = d.MaxContextChars
	}
	if c.LowConfidenceThreshold <= 0 {
		c.LowConfidenceThreshold = d.LowConfidenceThreshold
	}
	if c.InjectionPolicy == "" {
		c.InjectionPolicy = d.InjectionPolicy
	}
	if c.OracleTimeout <= 0 {
		c.OracleTimeout = DefaultOracleTimeout
	}
	return c
}

// AnswerExtractor validates a question and asks the reader oracle for an
// answer span in the context.
type AnswerExtractor struct {
	reader driven.AnswerOracle
	cfg    ExtractorConfig
}

// NewAnswerExtractor creates an extractor backed by reader.
func NewAnswerExtractor(reader driven.AnswerOracle, cfg ExtractorConfig) *AnswerExtractor {
	return &AnswerExtractor{reader: reader, cfg: cfg.withDefaults()}
}

// ValidateQuestion applies the question checks Extract runs before the
// oracle: emptiness, length and injection screening under the reject policy.
func (e *AnswerExtractor) ValidateQuestion(question string) error {
	_, err := e.screenQuestion(question)
	return err
}

// screenQuestion validates question and returns the injection warning, if any,
// that the warn policy lets through.
func (e *AnswerExtractor) screenQuestion(question string) (*domain.Warning, error) {
	// The limit applies to the question as submitted, padding included.
	if n := utf8.RuneCountInString(question); n > e.cfg.MaxQuestionChars {
		return nil, fmt.Errorf("question has %d characters, limit is %d: %w",
			n, e.cfg.MaxQuestionChars, domain.ErrInputTooLong)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question: %w", domain.ErrEmptyInput)
	}

	reason, suspicious := ScreenInjection(question)
	if !suspicious {
		return nil, nil
	}
	if e.cfg.InjectionPolicy == domain.InjectionPolicyWarn {
		w := domain.InjectionSuspectedWarning(reason)
		return &w, nil
	}
	return nil, fmt.Errorf("question contains %s: %w", reason, domain.ErrSuspectedInjection)
}

// Extract returns the reader's answer to question drawn from passage.
// A missing answer is not an error; the result carries NoAnswerText.
func (e *AnswerExtractor) Extract(ctx context.Context, question, passage string) (*domain.Answer, error) {
	injection, err := e.screenQuestion(question)
	if err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)

	if strings.TrimSpace(passage) == "" {
		return nil, fmt.Errorf("context: %w", domain.ErrEmptyInput)
	}
	if n := utf8.RuneCountInString(passage); n > e.cfg.MaxContextChars {
		return nil, fmt.Errorf("context has %d characters, limit is %d: %w",
			n, e.cfg.MaxContextChars, domain.ErrInputTooLong)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.OracleTimeout)
	defer cancel()
	res, err := e.reader.Answer(callCtx, question, passage)
	if err != nil {
		return nil, domain.NewOracleError("reader", err)
	}

	answer := &domain.Answer{Context: passage, Warnings: []domain.Warning{}}
	if injection != nil {
		answer.Warnings = append(answer.Warnings, *injection)
	}

	text := strings.TrimSpace(res.Text)
	if !res.Found || text == "" {
		logger.Debug("Reader %s found no answer", e.reader.ModelName())
		answer.Text = domain.NoAnswerText
		answer.Warnings = append(answer.Warnings, domain.LowConfidenceWarning(0))
		return answer, nil
	}

	answer.Text = text
	answer.Confidence = clampScore(res.Score)
	answer.SupportingContext = supportingSpan(passage, res)
	logger.Debug("Reader answer %q (score %.3f)", answer.Text, answer.Confidence)

	if answer.Confidence < e.cfg.LowConfidenceThreshold {
		answer.Warnings = append(answer.Warnings, domain.LowConfidenceWarning(answer.Confidence))
	}
	return answer, nil
}

// clampScore maps a reader score into [0, 1].
func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// supportingSpan returns the passage excerpt backing the answer. Spans the
// oracle reports are only trusted when they occur in the passage.
func supportingSpan(passage string, res driven.ReaderResult) string {
	if span := strings.TrimSpace(res.SupportingSpan); span != "" && strings.Contains(passage, span) {
		return span
	}
	if res.Start >= 0 && res.End > res.Start && res.End <= len(passage) &&
		strings.TrimSpace(passage[res.Start:res.End]) == strings.TrimSpace(res.Text) {
		return textutil.SentenceAt(passage, res.Start)
	}
	if i := strings.Index(passage, strings.TrimSpace(res.Text)); i >= 0 {
		return textutil.SentenceAt(passage, i)
	}
	return ""
}

// denied lists single characters that never appear in an ordinary question.
const denied = "\"`;|&$<>{}[]\\"

var (
	sqlComment   = regexp.MustCompile(`--|/\*|\*/`)
	sqlStatement = regexp.MustCompile(`(?i)\b(?:select\s+.+\s+from|insert\s+into|delete\s+from|` +
		`drop\s+(?:table|database)|update\s+\w+\s+set|union\s+(?:all\s+)?select|alter\s+table|` +
		`truncate\s+table|exec(?:ute)?\s*\()`)
)

// ScreenInjection reports whether question matches the injection denylist,
// with a short description of the first match. An apostrophe between two
// letters ("What's", "O'Brien") is allowed; any other single quote is not.
func ScreenInjection(question string) (string, bool) {
	runes := []rune(question)
	for i, r := range runes {
		switch {
		case strings.ContainsRune(denied, r):
			return fmt.Sprintf("character %q", r), true
		case r == '\'' || r == '\u2018' || r == '\u2019':
			if i > 0 && i < len(runes)-1 && unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1]) {
				continue
			}
			return fmt.Sprintf("character %q", r), true
		case unicode.IsControl(r):
			return "a control character", true
		}
	}
	if m := sqlComment.FindString(question); m != "" {
		return fmt.Sprintf("SQL comment token %q", m), true
	}
	if sqlStatement.MatchString(question) {
		return "a SQL statement", true
	}
	return "", false
}

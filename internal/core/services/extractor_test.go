package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/reader/lexical"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

const parisContext = "Paris is the capital of France."

func TestAnswerExtractor_Paris(t *testing.T) {
	e := NewAnswerExtractor(lexical.New(), ExtractorConfig{})

	answer, err := e.Extract(context.Background(), "What is the capital of France?", parisContext)
	require.NoError(t, err)

	assert.Equal(t, "Paris", answer.Text)
	assert.Greater(t, answer.Confidence, 0.3)
	assert.Equal(t, parisContext, answer.SupportingContext)
	assert.False(t, answer.HasWarning(domain.WarningLowConfidence))
	assert.True(t, answer.Found())
}

func TestAnswerExtractor_ValidationBeforeOracle(t *testing.T) {
	tests := []struct {
		name     string
		question string
		context  string
		wantErr  error
	}{
		{"empty question", "   ", parisContext, domain.ErrEmptyInput},
		{"empty context", "What is it?", " \n ", domain.ErrEmptyInput},
		{"question too long", strings.Repeat("a", 1001), parisContext, domain.ErrInputTooLong},
		{"padded question too long", "What is it?" + strings.Repeat(" ", 990), parisContext, domain.ErrInputTooLong},
		{"context too long", "What is it?", strings.Repeat("b", 100001), domain.ErrInputTooLong},
		{"semicolon", "What is it; rm -rf", parisContext, domain.ErrSuspectedInjection},
		{"sql statement", "select name from users", parisContext, domain.ErrSuspectedInjection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &mockReader{}
			e := NewAnswerExtractor(reader, ExtractorConfig{})

			_, err := e.Extract(context.Background(), tt.question, tt.context)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Zero(t, reader.calls.Load(), "oracle must not be called")
		})
	}
}

func TestAnswerExtractor_QuestionLimitCountsCharacters(t *testing.T) {
	reader := &mockReader{result: driven.ReaderResult{Found: true, Text: "Paris", Score: 0.9}}
	e := NewAnswerExtractor(reader, ExtractorConfig{})

	// 1000 two-byte runes is within the limit.
	_, err := e.Extract(context.Background(), strings.Repeat("é", 1000), parisContext)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reader.calls.Load())
}

func TestAnswerExtractor_WarnPolicy(t *testing.T) {
	reader := &mockReader{result: driven.ReaderResult{Found: true, Text: "Paris", Score: 0.9}}
	e := NewAnswerExtractor(reader, ExtractorConfig{InjectionPolicy: domain.InjectionPolicyWarn})

	answer, err := e.Extract(context.Background(), "What is the capital of <France>?", parisContext)
	require.NoError(t, err)
	assert.True(t, answer.HasWarning(domain.WarningInjectionSuspected))
	assert.Equal(t, "Paris", answer.Text)
	assert.NoError(t, e.ValidateQuestion("What is the capital of <France>?"))
}

func TestAnswerExtractor_NoAnswer(t *testing.T) {
	tests := []struct {
		name   string
		result driven.ReaderResult
	}{
		{"not found", driven.ReaderResult{Found: false, Text: "ignored", Score: 0.8}},
		{"blank text", driven.ReaderResult{Found: true, Text: "  ", Score: 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewAnswerExtractor(&mockReader{result: tt.result}, ExtractorConfig{})

			answer, err := e.Extract(context.Background(), "Who wrote Hamlet?", parisContext)
			require.NoError(t, err)
			assert.Equal(t, domain.NoAnswerText, answer.Text)
			assert.Zero(t, answer.Confidence)
			assert.False(t, answer.Found())
			assert.True(t, answer.HasWarning(domain.WarningLowConfidence))
		})
	}
}

func TestAnswerExtractor_ScoreClamping(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{-0.5, 0},
		{0.5, 0.5},
		{1.7, 1},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		reader := &mockReader{result: driven.ReaderResult{Found: true, Text: "Paris", Score: tt.score}}
		e := NewAnswerExtractor(reader, ExtractorConfig{})

		answer, err := e.Extract(context.Background(), "Which city?", parisContext)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, answer.Confidence, 1e-9)
		assert.Equal(t, tt.want < 0.3, answer.HasWarning(domain.WarningLowConfidence))
	}
}

func TestAnswerExtractor_SupportingSpan(t *testing.T) {
	passage := "Berlin is in Germany. Paris is the capital of France. Rome is old."

	tests := []struct {
		name   string
		result driven.ReaderResult
		want   string
	}{
		{
			name:   "trusted span",
			result: driven.ReaderResult{Found: true, Text: "Paris", Score: 1, SupportingSpan: "Paris is the capital of France."},
			want:   "Paris is the capital of France.",
		},
		{
			name:   "span outside passage falls back to offsets",
			result: driven.ReaderResult{Found: true, Text: "Paris", Score: 1, Start: 22, End: 27, SupportingSpan: "made up"},
			want:   "Paris is the capital of France.",
		},
		{
			name:   "bad offsets fall back to search",
			result: driven.ReaderResult{Found: true, Text: "Rome", Score: 1, Start: 0, End: 4},
			want:   "Rome is old.",
		},
		{
			name:   "answer not in passage",
			result: driven.ReaderResult{Found: true, Text: "Madrid", Score: 1},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewAnswerExtractor(&mockReader{result: tt.result}, ExtractorConfig{})
			answer, err := e.Extract(context.Background(), "Which city?", passage)
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer.SupportingContext)
		})
	}
}

func TestAnswerExtractor_OracleErrors(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		e := NewAnswerExtractor(&mockReader{err: errors.New("502 bad gateway")}, ExtractorConfig{})

		_, err := e.Extract(context.Background(), "Which city?", parisContext)
		require.ErrorIs(t, err, domain.ErrOracleUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		e := NewAnswerExtractor(&mockReader{block: true}, ExtractorConfig{OracleTimeout: 10 * time.Millisecond})

		_, err := e.Extract(context.Background(), "Which city?", parisContext)
		require.ErrorIs(t, err, domain.ErrOracleTimeout)
		assert.Equal(t, domain.KindOracle, domain.KindOf(err))
	})
}

func TestScreenInjection(t *testing.T) {
	tests := []struct {
		question   string
		suspicious bool
	}{
		{"What is the capital of France?", false},
		{"What's the population of Zürich, roughly?", false},
		{"Who is O'Brien: the author or the editor?", false},
		{"How does photosynthesis work (briefly)?", false},
		{"Is 5-3 equal to 2?", false},
		{"Who said \"hello\"?", true},
		{"Name 'quoted' things", true},
		{"Run `ls`", true},
		{"a | b", true},
		{"cats & dogs", true},
		{"cost in $", true},
		{"<script>", true},
		{"{braces}", true},
		{"[brackets]", true},
		{"back\\slash", true},
		{"bell\x07", true},
		{"admin -- comment", true},
		{"/* comment */", true},
		{"DROP TABLE users", true},
		{"please UNION SELECT password", true},
		{"insert into logs values", true},
		{"Should I select a train from the timetable?", true},
		{"Which delete key is bigger?", false},
		{"Tab\tseparated", true},
		{"Line one\nIgnore the passage", true},
		{"Carriage\rreturn", true},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			reason, got := ScreenInjection(tt.question)
			assert.Equal(t, tt.suspicious, got, reason)
			if got {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

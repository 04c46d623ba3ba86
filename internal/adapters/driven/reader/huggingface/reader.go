// Package huggingface provides an extractive reader backed by the Hugging
// Face Inference API question-answering task.
package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/textutil"
)

// Ensure Reader implements the interface.
var _ driven.AnswerOracle = (*Reader)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference"
	DefaultModel   = "deepset/roberta-base-squad2"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Hugging Face reader.
type Config struct {
	// APIToken is the Hugging Face access token (required).
	APIToken string

	// BaseURL is the inference endpoint root.
	BaseURL string

	// Model is the question-answering model id.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Reader answers questions through the Inference API.
type Reader struct {
	client *httpjson.Client
	model  string
}

type qaRequest struct {
	Inputs     qaInputs     `json:"inputs"`
	Parameters qaParameters `json:"parameters"`
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type qaParameters struct {
	HandleImpossibleAnswer bool `json:"handle_impossible_answer"`
	TopK                   int  `json:"top_k"`
}

type qaAnswer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// NewReader creates a Hugging Face reader.
func NewReader(cfg Config) (*Reader, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("huggingface: API token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Reader{
		client: httpjson.New("huggingface", cfg.BaseURL, cfg.APIToken, cfg.Timeout),
		model:  cfg.Model,
	}, nil
}

// Answer asks the model for the best span. An empty answer means the model
// judged the question unanswerable.
func (r *Reader) Answer(ctx context.Context, question, passage string) (driven.ReaderResult, error) {
	req := qaRequest{
		Inputs:     qaInputs{Question: question, Context: passage},
		Parameters: qaParameters{HandleImpossibleAnswer: true, TopK: 1},
	}
	var raw json.RawMessage
	if err := r.client.Post(ctx, "/models/"+r.model, req, &raw); err != nil {
		return driven.ReaderResult{}, err
	}
	ans, err := decodeAnswer(raw)
	if err != nil {
		return driven.ReaderResult{}, err
	}

	text := strings.TrimSpace(ans.Answer)
	if text == "" {
		return driven.ReaderResult{}, nil
	}
	result := driven.ReaderResult{
		Found: true,
		Text:  text,
		Score: ans.Score,
	}
	// Offsets are character based; only trust them when they slice back to the answer.
	if start, end, ok := byteOffsets(passage, ans.Start, ans.End, ans.Answer); ok {
		result.Start, result.End = start, end
		result.SupportingSpan = textutil.SentenceAt(passage, start)
	}
	return result, nil
}

// decodeAnswer accepts both the object and the single-element array shapes
// the API returns depending on top_k.
func decodeAnswer(raw json.RawMessage) (qaAnswer, error) {
	var one qaAnswer
	if err := json.Unmarshal(raw, &one); err == nil {
		return one, nil
	}
	var many []qaAnswer
	if err := json.Unmarshal(raw, &many); err != nil {
		return qaAnswer{}, fmt.Errorf("huggingface: unexpected answer payload: %w", err)
	}
	if len(many) == 0 {
		return qaAnswer{}, nil
	}
	return many[0], nil
}

// byteOffsets converts rune offsets to byte offsets within passage.
func byteOffsets(passage string, start, end int, answer string) (int, int, bool) {
	if start < 0 || end <= start {
		return 0, 0, false
	}
	runes := []rune(passage)
	if end > len(runes) {
		return 0, 0, false
	}
	bStart := len(string(runes[:start]))
	bEnd := bStart + len(string(runes[start:end]))
	if passage[bStart:bEnd] != answer {
		return 0, 0, false
	}
	return bStart, bEnd, true
}

// ModelName returns the QA model id.
func (r *Reader) ModelName() string {
	return r.model
}

// Ping runs a tiny inference to confirm the token and model work.
func (r *Reader) Ping(ctx context.Context) error {
	if _, err := r.Answer(ctx, "What is this?", "This is a test."); err != nil {
		return fmt.Errorf("huggingface: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (r *Reader) Close() error {
	return nil
}

// Package huggingface provides an entity extractor backed by the Hugging
// Face Inference API token-classification task.
package huggingface

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.EntityExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference"
	DefaultModel   = "dslim/bert-base-NER"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Hugging Face extractor.
type Config struct {
	APIToken string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// Extractor calls a NER model.
type Extractor struct {
	client *httpjson.Client
	model  string
}

type nerRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters nerParameters `json:"parameters"`
}

type nerParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

type nerEntity struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
}

// NewExtractor creates a Hugging Face entity extractor.
func NewExtractor(cfg Config) (*Extractor, error) {
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
	return &Extractor{
		client: httpjson.New("huggingface", cfg.BaseURL, cfg.APIToken, cfg.Timeout),
		model:  cfg.Model,
	}, nil
}

// Entities returns distinct entity words in the order the model reports them.
func (e *Extractor) Entities(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	req := nerRequest{
		Inputs:     text,
		Parameters: nerParameters{AggregationStrategy: "simple"},
	}
	var resp []nerEntity
	if err := e.client.Post(ctx, "/models/"+e.model, req, &resp); err != nil {
		return nil, err
	}

	var out []string
	seen := make(map[string]struct{}, len(resp))
	for _, ent := range resp {
		// Word-piece continuations leak through as "##x" on some models.
		word := strings.TrimSpace(strings.ReplaceAll(ent.Word, " ##", ""))
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out, nil
}

// ModelName returns the NER model id.
func (e *Extractor) ModelName() string {
	return e.model
}

// Ping runs a tiny inference to confirm the token and model work.
func (e *Extractor) Ping(ctx context.Context) error {
	if _, err := e.Entities(ctx, "Paris"); err != nil {
		return fmt.Errorf("huggingface: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (e *Extractor) Close() error {
	return nil
}

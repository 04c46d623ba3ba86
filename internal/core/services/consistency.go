package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/vectormath"
)

// ConsistencyConfig holds the semantic similarity thresholds.
type ConsistencyConfig struct {
	ContextSimilarityThreshold    float64
	SupportingSimilarityThreshold float64
	OracleTimeout                 time.Duration
}

func (c ConsistencyConfig) withDefaults() ConsistencyConfig {
	d := domain.DefaultAppSettings().QA
	if c.ContextSimilarityThreshold <= 0 {
		c.ContextSimilarityThreshold = d.ContextSimilarityThreshold
	}
	if c.SupportingSimilarityThreshold <= 0 {
		c.SupportingSimilarityThreshold = d.SupportingSimilarityThreshold
	}
	if c.OracleTimeout <= 0 {
		c.OracleTimeout = DefaultOracleTimeout
	}
	return c
}

// ConsistencyChecker compares an answer against its context for entities
// the context never mentions and for semantic drift.
// Both checks are advisory: oracle failures are logged and skipped.
type ConsistencyChecker struct {
	entities driven.EntityExtractor
	embedder driven.EmbeddingService
	cfg      ConsistencyConfig
}

// NewConsistencyChecker creates a checker. Either oracle may be nil, which
// disables the corresponding check.
func NewConsistencyChecker(
	entities driven.EntityExtractor,
	embedder driven.EmbeddingService,
	cfg ConsistencyConfig,
) *ConsistencyChecker {
	return &ConsistencyChecker{
		entities: entities,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
	}
}

// Check runs the entity and semantic checks concurrently and returns their
// warnings: hallucination first, then context drift, then supporting drift.
func (c *ConsistencyChecker) Check(ctx context.Context, answer, passage, supporting string) []domain.Warning {
	var (
		hallucinated []string
		semantic     []domain.Warning
	)

	var g errgroup.Group
	g.Go(func() error {
		hallucinated = c.unsupportedEntities(ctx, answer, passage)
		return nil
	})
	g.Go(func() error {
		semantic = c.semanticDrift(ctx, answer, passage, supporting)
		return nil
	})
	_ = g.Wait() //nolint:errcheck // neither check returns an error

	var warnings []domain.Warning
	if len(hallucinated) > 0 {
		warnings = append(warnings, domain.HallucinationWarning(hallucinated))
	}
	return append(warnings, semantic...)
}

// unsupportedEntities returns the sorted answer entities absent from the context.
func (c *ConsistencyChecker) unsupportedEntities(ctx context.Context, answer, passage string) []string {
	if c.entities == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.OracleTimeout)
	defer cancel()

	answerEnts, err := c.entities.Entities(callCtx, answer)
	if err != nil {
		logger.Warn("Entity check skipped: %v", domain.NewOracleError("entity", err))
		return nil
	}
	if len(answerEnts) == 0 {
		return nil
	}
	contextEnts, err := c.entities.Entities(callCtx, passage)
	if err != nil {
		logger.Warn("Entity check skipped: %v", domain.NewOracleError("entity", err))
		return nil
	}

	known := make(map[string]struct{}, len(contextEnts))
	for _, e := range contextEnts {
		known[e] = struct{}{}
	}
	seen := make(map[string]struct{})
	var missing []string
	for _, e := range answerEnts {
		if _, ok := known[e]; ok {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		missing = append(missing, e)
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		logger.Debug("Answer entities missing from context: %v", missing)
	}
	return missing
}

// semanticDrift embeds the answer with the context (and supporting span) in
// one batch and flags similarities under the thresholds.
func (c *ConsistencyChecker) semanticDrift(ctx context.Context, answer, passage, supporting string) []domain.Warning {
	if c.embedder == nil {
		return nil
	}
	texts := []string{answer, passage}
	hasSupporting := strings.TrimSpace(supporting) != ""
	if hasSupporting {
		texts = append(texts, supporting)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.OracleTimeout)
	defer cancel()
	vecs, err := c.embedder.EmbedBatch(callCtx, texts)
	if err != nil {
		logger.Warn("Semantic check skipped: %v", domain.NewOracleError("embedding", err))
		return nil
	}
	if len(vecs) != len(texts) {
		logger.Warn("Semantic check skipped: got %d vectors for %d texts", len(vecs), len(texts))
		return nil
	}

	var warnings []domain.Warning
	sim := vectormath.Cosine(vecs[0], vecs[1])
	logger.Debug("Answer/context similarity: %.3f", sim)
	if sim < c.cfg.ContextSimilarityThreshold {
		warnings = append(warnings, domain.SemanticInconsistencyWarning(sim, domain.ScopeContext))
	}
	if hasSupporting {
		sim = vectormath.Cosine(vecs[0], vecs[2])
		logger.Debug("Answer/supporting similarity: %.3f", sim)
		if sim < c.cfg.SupportingSimilarityThreshold {
			warnings = append(warnings, domain.SemanticInconsistencyWarning(sim, domain.ScopeSupporting))
		}
	}
	return warnings
}

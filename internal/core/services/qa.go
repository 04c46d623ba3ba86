package services

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QAService implements the interface.
var _ driving.QAService = (*QAService)(nil)

// QAService answers questions: retrieval, extraction, then consistency checks.
type QAService struct {
	retriever *Retriever
	extractor *AnswerExtractor
	checker   *ConsistencyChecker
}

// NewQAService creates a QA service. The checker is optional.
func NewQAService(retriever *Retriever, extractor *AnswerExtractor, checker *ConsistencyChecker) *QAService {
	return &QAService{
		retriever: retriever,
		extractor: extractor,
		checker:   checker,
	}
}

// Ask answers query. A supplied Query.Context is used verbatim; otherwise the
// context is retrieved from the current document session.
// Every failure is returned as a *domain.RequestError.
func (s *QAService) Ask(ctx context.Context, query domain.Query) (*domain.Answer, error) {
	logger.Section("Question Answering")
	logger.Debug("Question: %q", query.Question)
	start := time.Now()

	// Fail fast before spending an embedding call on a bad question.
	if err := s.extractor.ValidateQuestion(query.Question); err != nil {
		return nil, s.fail("validate", err)
	}

	retrieval := &domain.Retrieval{Context: query.Context}
	if strings.TrimSpace(query.Context) == "" {
		r, err := s.retriever.Retrieve(ctx, strings.TrimSpace(query.Question), query.TopK)
		if err != nil {
			return nil, s.fail("retrieve", err)
		}
		retrieval = r
		logger.Debug("Retrieved %d passages", len(r.Sources))
	} else {
		logger.Debug("Using supplied context (%d bytes)", len(query.Context))
	}

	answer, err := s.extractor.Extract(ctx, query.Question, retrieval.Context)
	if err != nil {
		return nil, s.fail("extract", err)
	}
	answer.Context = retrieval.Context
	answer.Sources = retrieval.Sources

	if answer.Found() && s.checker != nil {
		answer.Warnings = append(answer.Warnings,
			s.checker.Check(ctx, answer.Text, retrieval.Context, answer.SupportingContext)...)
	}

	logger.Debug("Answered in %v with %d warnings", time.Since(start), len(answer.Warnings))
	return answer, nil
}

// fail maps a stage error to a RequestError and logs it at a level that
// matches its kind.
func (s *QAService) fail(stage string, err error) error {
	reqErr := domain.NewRequestError(err)
	switch reqErr.Kind {
	case domain.KindInternal:
		logger.Error("QA %s failed: %v", stage, err)
	case domain.KindOracle:
		logger.Warn("QA %s degraded: %v", stage, err)
	default:
		logger.Debug("QA %s rejected: %v", stage, err)
	}
	return reqErr
}

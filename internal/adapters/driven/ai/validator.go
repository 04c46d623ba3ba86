package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations by creating the
// adapter and pinging it.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates an embedding configuration.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc)
}

// ValidateModel validates the reader or entity configuration named by role.
func (v *ConfigValidator) ValidateModel(role string, config *domain.ModelSettings) error {
	switch role {
	case "reader":
		r, err := CreateReader(config)
		if err != nil {
			return err
		}
		defer r.Close()
		return ping(context.Background(), r)
	case "entity":
		e, err := CreateEntityExtractor(config)
		if err != nil {
			return err
		}
		defer e.Close()
		return ping(context.Background(), e)
	default:
		return fmt.Errorf("%w: unknown model role %q", domain.ErrInvalidInput, role)
	}
}

// ValidateLLM validates an LLM configuration.
// Returns nil if the LLM is not configured.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	llm, err := CreateLLMService(config)
	if err != nil || llm == nil {
		return err
	}
	defer llm.Close()
	return ping(context.Background(), llm)
}

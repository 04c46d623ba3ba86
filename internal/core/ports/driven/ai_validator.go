package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateModel validates a reader or entity configuration by pinging the provider.
	ValidateModel(role string, config *domain.ModelSettings) error

	// ValidateLLM validates an LLM configuration by pinging the provider.
	// Returns nil if the LLM is not configured.
	ValidateLLM(config *domain.LLMSettings) error
}

package driven

import "github.com/custodia-labs/normrag/internal/core/domain"

// AIConfigValidator checks provider settings by contacting the provider.
// Both methods return nil for a provider that is not configured, so that
// settings can be saved before the backend is running.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}

package driving

import "github.com/custodia-labs/normrag/internal/core/domain"

// SettingsService reads and changes the application settings.
type SettingsService interface {
	// Get returns the stored settings merged over the defaults.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetEmbeddingProvider and SetLLMProvider switch provider and model.
	// An empty model selects the provider default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the settings without contacting any provider.
	// It reports every problem found.
	Validate() error

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the configured
	// provider.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}

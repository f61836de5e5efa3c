package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedBatchSize = "embedding.batch_size"
	keyEmbedRateLimit = "embedding.rate_limit"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMMaxTokens   = "llm.max_tokens"
	keyChunkSize      = "chunking.size"
	keyChunkOverlap   = "chunking.overlap"
	keyCorpusNorm     = "corpus.normative"
	keyCorpusTT       = "corpus.tt"
	keyIndexNorm      = "index.normative"
	keyIndexTT        = "index.tt"
	keyPoolWorkers    = "pool.workers"
	keyPoolQueue      = "pool.queue"
	keyPoolTimeout    = "pool.timeout"
	keyPoolRetries    = "pool.retries"
	keyModeMarker     = "mode.marker"
	keyModeKeywords   = "mode.keywords"
	keyFormatLabels   = "format.labels"

	retrievalPrefix = "retrieval."
)

// Profile names used under the retrieval.<name>.* keys.
const (
	ProfileSearch = domain.ProfileSearch
	ProfileTT     = domain.ProfileTT
	ProfileQA     = domain.ProfileQA
)

type setting struct {
	key   string
	value any
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// Missing or invalid values fall back to their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	timeout, err := s.getDuration(keyPoolTimeout, defaults.Pool.Timeout)
	if err != nil {
		return nil, err
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:  s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:     s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:   s.configStore.GetString(keyEmbedBaseURL),
			APIKey:    s.configStore.GetString(keyEmbedAPIKey),
			BatchSize: s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			RateLimit: s.getFloat(keyEmbedRateLimit, defaults.Embedding.RateLimit),
		},
		LLM: domain.LLMSettings{
			Provider:  s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:     s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:   s.configStore.GetString(keyLLMBaseURL),
			APIKey:    s.configStore.GetString(keyLLMAPIKey),
			MaxTokens: s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Corpora: domain.CorpusSettings{
			NormativeDir:   s.getString(keyCorpusNorm, defaults.Corpora.NormativeDir),
			TTDir:          s.getString(keyCorpusTT, defaults.Corpora.TTDir),
			NormativeIndex: s.getString(keyIndexNorm, defaults.Corpora.NormativeIndex),
			TTIndex:        s.getString(keyIndexTT, defaults.Corpora.TTIndex),
		},
		Retrieval: domain.RetrievalProfiles{
			Search: s.getProfile(ProfileSearch, defaults.Retrieval.Search),
			TT:     s.getProfile(ProfileTT, defaults.Retrieval.TT),
			QA:     s.getProfile(ProfileQA, defaults.Retrieval.QA),
		},
		Pool: domain.PoolSettings{
			Workers: s.getInt(keyPoolWorkers, defaults.Pool.Workers),
			Queue:   s.getInt(keyPoolQueue, defaults.Pool.Queue),
			Timeout: timeout,
			Retries: s.getInt(keyPoolRetries, defaults.Pool.Retries),
		},
		Mode: domain.ModeRules{
			Marker:   s.getString(keyModeMarker, defaults.Mode.Marker),
			Keywords: s.getStringSlice(keyModeKeywords, defaults.Mode.Keywords),
		},
		Format: domain.FormatSettings{
			Labels: s.getString(keyFormatLabels, defaults.Format.Labels),
		},
	}

	// Cloud providers use their public endpoints; only local ones get a default URL.
	if settings.Embedding.BaseURL == "" && settings.Embedding.Provider.IsLocal() {
		settings.Embedding.BaseURL = defaults.Embedding.BaseURL
	}
	if settings.LLM.BaseURL == "" && settings.LLM.Provider.IsLocal() {
		settings.LLM.BaseURL = defaults.LLM.BaseURL
	}

	return settings, nil
}

// Save persists application settings.
// Empty API keys are not written so that a stored key survives.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}

	values := []setting{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyCorpusNorm, settings.Corpora.NormativeDir},
		{keyCorpusTT, settings.Corpora.TTDir},
		{keyIndexNorm, settings.Corpora.NormativeIndex},
		{keyIndexTT, settings.Corpora.TTIndex},
		{keyPoolWorkers, settings.Pool.Workers},
		{keyPoolQueue, settings.Pool.Queue},
		{keyPoolTimeout, settings.Pool.Timeout.String()},
		{keyPoolRetries, settings.Pool.Retries},
		{keyModeMarker, settings.Mode.Marker},
		{keyModeKeywords, settings.Mode.Keywords},
		{keyFormatLabels, settings.Format.Labels},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, setting{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, setting{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	profiles := map[string]domain.RetrievalProfile{
		ProfileSearch: settings.Retrieval.Search,
		ProfileTT:     settings.Retrieval.TT,
		ProfileQA:     settings.Retrieval.QA,
	}
	for _, name := range []string{ProfileSearch, ProfileTT, ProfileQA} {
		if err := s.saveProfile(name, profiles[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) saveProfile(name string, p domain.RetrievalProfile) error {
	prefix := retrievalPrefix + name + "."
	fields := []setting{
		{"strategy", string(p.Strategy)},
		{"k", p.K},
		{"fetch_k", p.FetchK},
		{"lambda", p.Lambda},
		{"temperature", p.Temperature},
	}
	for _, f := range fields {
		if err := s.configStore.Set(prefix+f.key, f.value); err != nil {
			return fmt.Errorf("save %s%s: %w", prefix, f.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a configured URL for local providers and clears it for
// cloud providers, which use their public endpoints.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return domain.DefaultAppSettings().Embedding.BaseURL
	}
	return current
}

// Validate checks the current settings for consistency.
// All problems are reported together.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider))
	}
	if settings.Embedding.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding.batch_size must be positive, got %d", settings.Embedding.BatchSize))
	}
	if settings.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("chunking.size must be positive, got %d", settings.Chunking.Size))
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.Size {
		errs = append(errs, fmt.Errorf("chunking.overlap must be within [0, %d), got %d",
			settings.Chunking.Size, settings.Chunking.Overlap))
	}
	for name, p := range map[string]domain.RetrievalProfile{
		ProfileSearch: settings.Retrieval.Search,
		ProfileTT:     settings.Retrieval.TT,
		ProfileQA:     settings.Retrieval.QA,
	} {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("retrieval.%s: %w", name, err))
		}
	}
	if settings.Pool.Workers <= 0 {
		errs = append(errs, fmt.Errorf("pool.workers must be positive, got %d", settings.Pool.Workers))
	}
	if settings.Pool.Queue < 0 {
		errs = append(errs, fmt.Errorf("pool.queue must not be negative, got %d", settings.Pool.Queue))
	}
	if settings.Pool.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("pool.timeout must be positive, got %s", settings.Pool.Timeout))
	}
	if settings.Pool.Retries < 0 {
		errs = append(errs, fmt.Errorf("pool.retries must not be negative, got %d", settings.Pool.Retries))
	}
	if settings.Format.Labels != domain.LabelsEnglish && settings.Format.Labels != domain.LabelsRussian {
		errs = append(errs, fmt.Errorf("format.labels must be %q or %q, got %q",
			domain.LabelsEnglish, domain.LabelsRussian, settings.Format.Labels))
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetPipelineConfig returns the chunking pipeline for the current settings.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultPipelineConfig()
	}
	return domain.PipelineConfigFor(settings.Chunking)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return append([]string(nil), defaultVal...)
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	switch v := val.(type) {
	case int64:
		return time.Duration(v) * time.Second, nil
	case int:
		return time.Duration(v) * time.Second, nil
	}
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	return d, nil
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getProfile(name string, defaults domain.RetrievalProfile) domain.RetrievalProfile {
	prefix := retrievalPrefix + name + "."
	strategy := domain.RetrievalStrategy(s.configStore.GetString(prefix + "strategy"))
	if !strategy.IsValid() {
		strategy = defaults.Strategy
	}
	return domain.RetrievalProfile{
		Strategy:    strategy,
		K:           s.getInt(prefix+"k", defaults.K),
		FetchK:      s.getInt(prefix+"fetch_k", defaults.FetchK),
		Lambda:      s.getFloat(prefix+"lambda", defaults.Lambda),
		Temperature: s.getFloat(prefix+"temperature", defaults.Temperature),
	}
}

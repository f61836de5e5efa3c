package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/normrag/internal/core/domain"
)

type stubValidator struct {
	embedErr error
	llmErr   error
	embedded *domain.EmbeddingSettings
}

func (v *stubValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	v.embedded = config
	return v.embedErr
}

func (v *stubValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return v.llmErr
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStoreWith(map[string]any{
		"embedding.provider":         "openai",
		"embedding.model":            "text-embedding-3-large",
		"llm.max_tokens":             int64(2048),
		"chunking.size":              int64(800),
		"corpus.tt":                  "/data/tt",
		"retrieval.search.k":         int64(4),
		"retrieval.search.lambda":    0.9,
		"retrieval.tt.strategy":      "similarity",
		"retrieval.tt.temperature":   0.4,
		"pool.workers":               int64(5),
		"pool.timeout":               "90s",
		"mode.marker":                "/тт",
		"mode.keywords":              []any{"спецификация"},
		"format.labels":              "ru",
		"retrieval.qa.fetch_k":       int64(30),
		"embedding.rate_limit":       int64(4),
		"retrieval.search.fetch_k":   int64(40),
		"retrieval.search.strategy":  "bogus",
		"retrieval.tt.lambda":        int64(0),
		"pool.retries":               int64(2),
		"embedding.batch_size":       int64(16),
		"retrieval.qa.temperature":   0.1,
		"retrieval.search.nonsense":  "ignored",
		"index.normative":            "/data/index",
		"llm.provider":               "anthropic",
	})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, 16, settings.Embedding.BatchSize)
	assert.InDelta(t, 4.0, settings.Embedding.RateLimit, 1e-9)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, 2048, settings.LLM.MaxTokens)
	assert.Equal(t, 800, settings.Chunking.Size)
	assert.Equal(t, "/data/tt", settings.Corpora.TTDir)
	assert.Equal(t, "/data/index", settings.Corpora.NormativeIndex)
	assert.Equal(t, "./documents", settings.Corpora.NormativeDir)

	assert.Equal(t, domain.StrategyMMR, settings.Retrieval.Search.Strategy, "invalid strategy falls back")
	assert.Equal(t, 4, settings.Retrieval.Search.K)
	assert.Equal(t, 40, settings.Retrieval.Search.FetchK)
	assert.InDelta(t, 0.9, settings.Retrieval.Search.Lambda, 1e-9)
	assert.Equal(t, domain.StrategySimilarity, settings.Retrieval.TT.Strategy)
	assert.Zero(t, settings.Retrieval.TT.Lambda, "explicit zero is kept")
	assert.InDelta(t, 0.4, settings.Retrieval.TT.Temperature, 1e-9)
	assert.Equal(t, 30, settings.Retrieval.QA.FetchK)

	assert.Equal(t, 5, settings.Pool.Workers)
	assert.Equal(t, 90*time.Second, settings.Pool.Timeout)
	assert.Equal(t, 2, settings.Pool.Retries)
	assert.Equal(t, "/тт", settings.Mode.Marker)
	assert.Equal(t, []string{"спецификация"}, settings.Mode.Keywords)
	assert.Equal(t, domain.LabelsRussian, settings.Format.Labels)
}

func TestSettingsService_Get_TimeoutAsSeconds(t *testing.T) {
	store := memory.NewConfigStoreWith(map[string]any{"pool.timeout": int64(30)})

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, settings.Pool.Timeout)
}

func TestSettingsService_Get_BadTimeout(t *testing.T) {
	store := memory.NewConfigStoreWith(map[string]any{"pool.timeout": "soon"})

	_, err := NewSettingsService(store, nil).Get()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Get_InvalidProviderFallsBack(t *testing.T) {
	store := memory.NewConfigStoreWith(map[string]any{"embedding.provider": "invalid"})

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
}

func TestSettingsService_SaveAndReload(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Retrieval.TT.K = 12
	settings.Retrieval.TT.Lambda = 0.3
	settings.Pool.Timeout = 2 * time.Minute
	settings.Mode.Keywords = []string{"тт"}
	settings.LLM.APIKey = "sk-test"

	require.NoError(t, service.Save(&settings))

	assert.Equal(t, "2m0s", store.GetString("pool.timeout"))
	assert.Equal(t, "sk-test", store.GetString("llm.api_key"))
	_, hasEmbedKey := store.Get("embedding.api_key")
	assert.False(t, hasEmbedKey, "empty API keys are not written")

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Save_Nil(t *testing.T) {
	err := NewSettingsService(memory.NewConfigStore(), nil).Save(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("openai clears base url and sets default model", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-key"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
		assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
		assert.Equal(t, "sk-key", settings.Embedding.APIKey)
		assert.Empty(t, settings.Embedding.BaseURL)
	})

	t.Run("ollama keeps a custom base url", func(t *testing.T) {
		store := memory.NewConfigStoreWith(map[string]any{"embedding.base_url": "http://gpu:11434"})
		service := NewSettingsService(store, nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "all-minilm", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "http://gpu:11434", settings.Embedding.BaseURL)
		assert.Equal(t, "all-minilm", settings.Embedding.Model)
	})

	t.Run("rejections", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		assert.Error(t, service.SetEmbeddingProvider("bogus", "", ""))
		assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key"))
		assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	})
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Equal(t, "sk-ant", settings.LLM.APIKey)

	assert.Error(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", ""))
	assert.Error(t, service.SetLLMProvider("bogus", "", ""))
}

func TestSettingsService_Validate_Defaults(t *testing.T) {
	assert.NoError(t, NewSettingsService(memory.NewConfigStore(), nil).Validate())
}

func TestSettingsService_Validate_ReportsEveryProblem(t *testing.T) {
	store := memory.NewConfigStoreWith(map[string]any{
		"llm.provider":        "openai",
		"chunking.overlap":    int64(1000),
		"retrieval.tt.k":      int64(0),
		"retrieval.qa.lambda": 1.5,
		"pool.workers":        int64(0),
		"format.labels":       "de",
	})

	err := NewSettingsService(store, nil).Validate()

	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "LLM provider")
	assert.Contains(t, msg, "chunking.overlap")
	assert.Contains(t, msg, "retrieval.tt")
	assert.Contains(t, msg, "retrieval.qa")
	assert.Contains(t, msg, "pool.workers")
	assert.Contains(t, msg, "format.labels")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "profile errors keep their sentinel")
}

func TestSettingsService_ValidateConfigs(t *testing.T) {
	t.Run("no validator", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateEmbeddingConfig())
		assert.NoError(t, service.ValidateLLMConfig())
	})

	t.Run("delegates", func(t *testing.T) {
		unreachable := errors.New("connection refused")
		v := &stubValidator{embedErr: unreachable}
		service := NewSettingsService(memory.NewConfigStore(), v)

		assert.ErrorIs(t, service.ValidateEmbeddingConfig(), unreachable)
		require.NotNil(t, v.embedded)
		assert.Equal(t, "nomic-embed-text", v.embedded.Model)
		assert.NoError(t, service.ValidateLLMConfig())
	})
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	store := memory.NewConfigStoreWith(map[string]any{"chunking.size": int64(500), "chunking.overlap": int64(50)})

	cfg := NewSettingsService(store, nil).GetPipelineConfig()

	assert.Equal(t, []string{"chunker", "sections"}, cfg.Processors)
	assert.Equal(t, 500, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, 50, cfg.GetProcessorConfig("chunker")["overlap"])
}

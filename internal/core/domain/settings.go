package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of chunks embedded per request batch.
	BatchSize int

	// RateLimit caps embedding requests per second. Zero disables limiting.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxTokens bounds the generated reply. Zero uses the provider default.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings configures the hierarchical chunker.
type ChunkingSettings struct {
	// Size is the target chunk size in characters.
	Size int

	// Overlap is the overlap between consecutive chunks in characters.
	Overlap int
}

// CorpusSettings holds the document and index locations of both corpora.
type CorpusSettings struct {
	NormativeDir   string
	TTDir          string
	NormativeIndex string
	TTIndex        string
}

// Dir returns the document directory of a corpus.
func (c CorpusSettings) Dir(corpus Corpus) string {
	if corpus == CorpusTT {
		return c.TTDir
	}
	return c.NormativeDir
}

// Index returns the persisted index location of a corpus.
func (c CorpusSettings) Index(corpus Corpus) string {
	if corpus == CorpusTT {
		return c.TTIndex
	}
	return c.NormativeIndex
}

// PoolSettings configures request dispatch.
type PoolSettings struct {
	// Workers is the number of concurrent generation calls.
	Workers int

	// Queue is the number of requests that may wait for a worker.
	Queue int

	// Timeout bounds each request from submission to completion.
	Timeout time.Duration

	// Retries is the number of extra attempts after a failed generation call.
	Retries int
}

// Label sets for the context formatter.
const (
	LabelsEnglish = "en"
	LabelsRussian = "ru"
)

// FormatSettings configures the context formatter.
type FormatSettings struct {
	// Labels selects the document/sections tag language.
	Labels string
}

// AppSettings is the aggregate application configuration.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Corpora   CorpusSettings
	Retrieval RetrievalProfiles
	Pool      PoolSettings
	Mode      ModeRules
	Format    FormatSettings
}

// DefaultAppSettings returns the default configuration.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     "nomic-embed-text",
			BaseURL:   "http://localhost:11434",
			BatchSize: 32,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "qwen3:8b",
			BaseURL:  "http://localhost:11434",
		},
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		Corpora: CorpusSettings{
			NormativeDir:   "./documents",
			TTDir:          "./documents_tt",
			NormativeIndex: "./faiss_index",
			TTIndex:        "./faiss_index_tt",
		},
		Retrieval: DefaultRetrievalProfiles(),
		Pool: PoolSettings{
			Workers: 3,
			Queue:   16,
			Timeout: 240 * time.Second,
		},
		Mode:   DefaultModeRules(),
		Format: FormatSettings{Labels: LabelsEnglish},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "qwen3:8b",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor returns the pipeline that chunks documents and
// annotates the chunks with section references.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "sections"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": c.Size,
				"overlap":    c.Overlap,
			},
		},
	}
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(DefaultAppSettings().Chunking)
}

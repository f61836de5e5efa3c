package driven

import "context"

// LLMService completes filled prompt templates. Ollama, OpenAI and
// Anthropic adapters implement it.
type LLMService interface {
	// Generate returns the completion for prompt. A context deadline
	// surfaces as context.DeadlineExceeded.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	ModelName() string

	// Ping sends a minimal request to check that the model is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes one completion. Zero values leave the provider
// default in place, except Temperature, whose zero means greedy decoding.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}

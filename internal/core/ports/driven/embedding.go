package driven

import "context"

// EmbeddingService turns text into vectors. Index builds call EmbedBatch
// and queries call Embed; both must yield the same vector for the same
// text with the same model. Ollama and OpenAI adapters implement it.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, known after the first embedding
	// for models without a registered size.
	Dimensions() int

	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

package driven

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// PostProcessor is one stage of chunk production. The chunker receives
// nil and creates chunks; annotating stages receive chunks and return
// them enriched.
type PostProcessor interface {
	// Name is the key the processor is registered and configured under.
	Name() string

	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns documents into index chunks.
type PostProcessorPipeline interface {
	// Process returns the non-blank chunks of one document.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)

	// ProcessAll chunks a whole corpus in document order. It stops at the
	// first document that fails.
	ProcessAll(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error)
}

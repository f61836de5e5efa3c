package sections

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor annotates chunks with the section references of their own text.
// It implements the PostProcessor interface and must run after the chunker.
type Processor struct{}

// New creates a section annotation processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "sections"
}

// Process sets Sections on every chunk and records them in the chunk metadata.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		refs := Extract(chunks[i].Content)
		chunks[i].Sections = refs
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any)
		}
		meta := make([]string, len(refs))
		copy(meta, refs)
		chunks[i].Metadata[domain.MetaSections] = meta
	}
	return chunks, nil
}

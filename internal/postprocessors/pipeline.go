// Package postprocessors turns loaded documents into index chunks.
// A pipeline is built from named processors: the chunker creates the
// chunks and later stages annotate them.
package postprocessors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order over each document.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline running processors in the given order.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process chunks a single document. The first processor receives nil
// chunks. Chunks whose content is blank after the last stage are dropped.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}

	var chunks []domain.Chunk
	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	kept := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}
	return kept, nil
}

// ProcessAll chunks every document of a corpus, keeping document order.
func (p *Pipeline) ProcessAll(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docChunks, err := p.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", docs[i].Filename, err)
		}
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}

// Names returns the processor names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, processor := range p.processors {
		names[i] = processor.Name()
	}
	return names
}

// Package chunker provides a hierarchical text chunking processor that
// prefers to cut documents at section, paragraph and sentence boundaries.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits document content into bounded, overlapping chunks.
// It implements the PostProcessor interface.
// Sizes are counted in characters (runes), not bytes.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []Separator
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the boundary list. The list is tried in order.
func WithSeparators(seps []Separator) Option {
	return func(p *Processor) {
		if len(seps) > 0 {
			p.separators = seps
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators(),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Each chunk inherits the document metadata.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	texts := p.Split(doc.Content)
	chunks := make([]domain.Chunk, 0, len(texts))

	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    text,
			Position:   i,
			Metadata:   chunkMetadata(doc),
		})
	}

	return chunks, nil
}

// Split cuts text into chunks of at most the configured size, except where a
// single unbreakable piece is longer. Consecutive chunks share up to the
// configured overlap. The final chunk may be shorter than the target.
func (p *Processor) Split(text string) []string {
	return p.splitRecursive(text, p.separators)
}

func (p *Processor) splitRecursive(text string, seps []Separator) []string {
	if len(seps) == 0 {
		return p.merge([]string{text})
	}

	// Use the first boundary present in the text; only coarser ones remain
	// for pieces that are still too large.
	sep := seps[len(seps)-1]
	var rest []Separator
	for i, s := range seps {
		if s.matches(text) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var out, good []string
	for _, piece := range sep.split(text) {
		if runeLen(piece) <= p.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, p.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			if s := strings.TrimSpace(piece); s != "" {
				out = append(out, s)
			}
			continue
		}
		out = append(out, p.splitRecursive(piece, rest)...)
	}
	if len(good) > 0 {
		out = append(out, p.merge(good)...)
	}
	return out
}

// merge packs pieces into chunks no longer than chunkSize. When a chunk is
// emitted, pieces are dropped from its front until at most overlap
// characters remain, and those carry over into the next chunk.
func (p *Processor) merge(pieces []string) []string {
	var (
		out     []string
		current []string
		total   int
	)

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > p.chunkSize && len(current) > 0 {
			if s := join(current); s != "" {
				out = append(out, s)
			}
			for total > p.overlap || (total+n > p.chunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if s := join(current); s != "" {
		out = append(out, s)
	}
	return out
}

func join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// chunkMetadata copies the document metadata and adds the provenance fields
// every index entry carries.
func chunkMetadata(doc *domain.Document) map[string]any {
	meta := make(map[string]any, len(doc.Metadata)+3)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta[domain.MetaFilename] = doc.Filename
	meta[domain.MetaSource] = doc.SourcePath
	meta[domain.MetaFormat] = doc.Format.String()
	return meta
}

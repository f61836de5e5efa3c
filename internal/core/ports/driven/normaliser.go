package driven

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// Normaliser extracts the text of one file format.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority orders normalisers that accept the same type. Format
	// specific readers use 50 to 89 and catch-all fallbacks 1 to 9.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the extracted document. Its Content is the full
// text; chunking happens later in the post-processor pipeline.
type NormaliseResult struct {
	Document domain.Document
}

package driven

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// IndexStore persists built indexes to a directory and loads them back.
type IndexStore interface {
	// Save writes a complete index into dir, which must not already hold one.
	// Chunks must carry their embeddings and are stored in slice order.
	Save(ctx context.Context, dir string, manifest domain.IndexManifest, docs []domain.Document, chunks []domain.Chunk) error

	// Load reads an index back with chunks in their original order.
	Load(ctx context.Context, dir string) (*StoredIndex, error)

	// Exists reports whether both index artifacts are present in dir.
	// It does not validate their contents.
	Exists(dir string) bool

	// ReadManifest reads only the manifest of the index in dir.
	ReadManifest(dir string) (*domain.IndexManifest, error)
}

// StoredIndex is the content of a persisted index.
type StoredIndex struct {
	Manifest  domain.IndexManifest
	Documents []domain.Document
	Chunks    []domain.Chunk
}

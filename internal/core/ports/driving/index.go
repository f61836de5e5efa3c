package driving

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// IndexService builds, persists and loads corpus indexes.
type IndexService interface {
	// BuildOrLoad loads the index persisted at persistPath if its artifacts exist,
	// otherwise builds one from the documents under corpusPath and persists it.
	BuildOrLoad(ctx context.Context, corpusPath, persistPath string) (Index, error)

	// Build builds an index from corpusPath. An existing index at persistPath
	// is kept unless force is set. The new index replaces it only on success.
	Build(ctx context.Context, corpusPath, persistPath string, force bool) (Index, error)

	// Load loads the index at persistPath or returns domain.ErrIndexMissing.
	Load(ctx context.Context, persistPath string) (Index, error)

	// Status reports whether an index is persisted at persistPath.
	Status(corpus domain.Corpus, persistPath string) domain.IndexStatus
}

// Index is a loaded, read-only corpus index. It is safe for concurrent use.
type Index interface {
	// Search embeds query and ranks chunks according to profile.
	Search(ctx context.Context, query string, profile domain.RetrievalProfile) ([]domain.RetrievedChunk, error)

	// Manifest describes how the index was built.
	Manifest() domain.IndexManifest

	// Len returns the number of index entries.
	Len() int
}

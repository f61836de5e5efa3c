package driven

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// Connector enumerates the files of a document collection.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks that the collection root exists and is readable.
	Validate(ctx context.Context) error

	// FullSync fetches all documents from the collection.
	// Per-file read errors are sent on the error channel and do not stop the walk.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch listens for changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}

// ConnectorFactory creates a connector for a collection root.
type ConnectorFactory interface {
	Create(root string) (Connector, error)
}

package driving

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// Retriever is an index bound to a validated retrieval profile.
type Retriever interface {
	// Retrieve returns up to K chunks for query in relevance order.
	Retrieve(ctx context.Context, query string) ([]domain.RetrievedChunk, error)

	// Profile returns the parameters the retriever was made with.
	Profile() domain.RetrievalProfile
}

// RetrievalService produces retrievers and prompt-ready context blocks.
type RetrievalService interface {
	// MakeRetriever binds index to profile after validating the profile.
	MakeRetriever(index Index, profile domain.RetrievalProfile) (Retriever, error)

	// Answer retrieves chunks for query and formats them into a context block.
	Answer(ctx context.Context, retriever Retriever, query string) (string, error)
}

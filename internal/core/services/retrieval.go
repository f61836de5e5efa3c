package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService binds indexes to retrieval profiles and formats results.
type RetrievalService struct {
	formatter *ContextFormatter
}

// NewRetrievalService creates a retrieval service. A nil formatter uses
// English labels.
func NewRetrievalService(formatter *ContextFormatter) *RetrievalService {
	if formatter == nil {
		formatter = NewContextFormatter(EnglishLabels)
	}
	return &RetrievalService{formatter: formatter}
}

// MakeRetriever validates profile and binds it to index.
func (s *RetrievalService) MakeRetriever(index driving.Index, profile domain.RetrievalProfile) (driving.Retriever, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: nil index", domain.ErrInvalidInput)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &retriever{index: index, profile: profile}, nil
}

// Answer retrieves chunks for query and formats them into a context block.
func (s *RetrievalService) Answer(ctx context.Context, r driving.Retriever, query string) (string, error) {
	chunks, err := r.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	return s.formatter.Format(chunks), nil
}

// Formatter returns the formatter used by Answer.
func (s *RetrievalService) Formatter() *ContextFormatter {
	return s.formatter
}

type retriever struct {
	index   driving.Index
	profile domain.RetrievalProfile
}

func (r *retriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievedChunk, error) {
	chunks, err := r.index.Search(ctx, query, r.profile)
	if err != nil {
		return nil, err
	}
	logger.Debug("Retrieved %d chunks (%s, k=%d, fetch_k=%d, lambda=%.2f)",
		len(chunks), r.profile.Strategy, r.profile.K, r.profile.FetchK, r.profile.Lambda)
	return chunks, nil
}

func (r *retriever) Profile() domain.RetrievalProfile {
	return r.profile
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Corpora holds the loaded indexes of both corpora for query time.
type Corpora struct {
	normative driving.Index
	tt        driving.Index
	aliased   bool
}

// NewCorpora wraps already loaded indexes. A nil tt index aliases normative.
func NewCorpora(normative, tt driving.Index) *Corpora {
	c := &Corpora{normative: normative, tt: tt}
	if tt == nil {
		c.tt = normative
		c.aliased = true
	}
	return c
}

// OpenCorpora loads the persisted indexes named in settings.
// The normative index is required. When the TT index has not been
// built the normative index serves TT requests too.
func OpenCorpora(ctx context.Context, indexes driving.IndexService, settings domain.CorpusSettings) (*Corpora, error) {
	normative, err := indexes.Load(ctx, settings.Index(domain.CorpusNormative))
	if err != nil {
		return nil, fmt.Errorf("open %s corpus: %w", domain.CorpusNormative, err)
	}

	tt, err := indexes.Load(ctx, settings.Index(domain.CorpusTT))
	switch {
	case errors.Is(err, domain.ErrIndexMissing):
		logger.Warn("TT index %s is not built; TT requests will use the normative index",
			settings.Index(domain.CorpusTT))
		return NewCorpora(normative, nil), nil
	case err != nil:
		return nil, fmt.Errorf("open %s corpus: %w", domain.CorpusTT, err)
	}
	return NewCorpora(normative, tt), nil
}

// CorpusBuilder builds one corpus index and records the corpus in its manifest.
type CorpusBuilder interface {
	BuildCorpus(ctx context.Context, corpus domain.Corpus, corpusPath, persistPath string, force bool) (driving.Index, error)
}

// BuildCorpora builds or loads the indexes of the given corpora in order.
// A TT corpus directory that does not exist is skipped with a warning.
func BuildCorpora(
	ctx context.Context,
	indexes CorpusBuilder,
	settings domain.CorpusSettings,
	corpora []domain.Corpus,
	force bool,
) (map[domain.Corpus]driving.Index, error) {
	built := make(map[domain.Corpus]driving.Index, len(corpora))
	for _, corpus := range corpora {
		idx, err := indexes.BuildCorpus(ctx, corpus, settings.Dir(corpus), settings.Index(corpus), force)
		if corpus == domain.CorpusTT && errors.Is(err, domain.ErrCorpusNotFound) {
			logger.Warn("Skipping TT corpus: %v", err)
			continue
		}
		if err != nil {
			return built, fmt.Errorf("build %s corpus: %w", corpus, err)
		}
		built[corpus] = idx
	}
	return built, nil
}

// Index returns the index that serves corpus.
func (c *Corpora) Index(corpus domain.Corpus) driving.Index {
	if corpus == domain.CorpusTT {
		return c.tt
	}
	return c.normative
}

// Aliased reports whether TT requests are served by the normative index.
func (c *Corpora) Aliased() bool {
	return c.aliased
}

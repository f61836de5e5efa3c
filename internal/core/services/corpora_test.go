package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
)

// mapIndexService loads indexes from a fixed path map.
type mapIndexService struct {
	indexes map[string]driving.Index
	errs    map[string]error
}

func (m *mapIndexService) BuildOrLoad(ctx context.Context, _, persistPath string) (driving.Index, error) {
	return m.Load(ctx, persistPath)
}

func (m *mapIndexService) Build(ctx context.Context, _, persistPath string, _ bool) (driving.Index, error) {
	return m.Load(ctx, persistPath)
}

func (m *mapIndexService) Load(_ context.Context, persistPath string) (driving.Index, error) {
	if err, ok := m.errs[persistPath]; ok {
		return nil, err
	}
	if idx, ok := m.indexes[persistPath]; ok {
		return idx, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrIndexMissing, persistPath)
}

func (m *mapIndexService) Status(corpus domain.Corpus, persistPath string) domain.IndexStatus {
	_, ok := m.indexes[persistPath]
	return domain.IndexStatus{Corpus: corpus, PersistPath: persistPath, Built: ok}
}

func TestOpenCorpora(t *testing.T) {
	settings := domain.DefaultAppSettings().Corpora
	normative := &fakeIndex{}
	tt := &fakeIndex{}

	t.Run("both built", func(t *testing.T) {
		svc := &mapIndexService{indexes: map[string]driving.Index{
			settings.NormativeIndex: normative,
			settings.TTIndex:        tt,
		}}
		corpora, err := OpenCorpora(context.Background(), svc, settings)
		require.NoError(t, err)
		assert.False(t, corpora.Aliased())
		assert.Same(t, normative, corpora.Index(domain.CorpusNormative))
		assert.Same(t, tt, corpora.Index(domain.CorpusTT))
	})

	t.Run("tt missing aliases normative", func(t *testing.T) {
		svc := &mapIndexService{indexes: map[string]driving.Index{settings.NormativeIndex: normative}}
		corpora, err := OpenCorpora(context.Background(), svc, settings)
		require.NoError(t, err)
		assert.True(t, corpora.Aliased())
		assert.Same(t, normative, corpora.Index(domain.CorpusTT))
	})

	t.Run("normative missing", func(t *testing.T) {
		svc := &mapIndexService{indexes: map[string]driving.Index{settings.TTIndex: tt}}
		_, err := OpenCorpora(context.Background(), svc, settings)
		assert.ErrorIs(t, err, domain.ErrIndexMissing)
	})

	t.Run("broken tt index is an error", func(t *testing.T) {
		svc := &mapIndexService{
			indexes: map[string]driving.Index{settings.NormativeIndex: normative},
			errs:    map[string]error{settings.TTIndex: errors.New("file is not a database")},
		}
		_, err := OpenCorpora(context.Background(), svc, settings)
		assert.ErrorContains(t, err, "file is not a database")
	})
}

func TestBuildCorpora_SkipsMissingTTDirectory(t *testing.T) {
	root := t.TempDir()
	settings := domain.CorpusSettings{
		NormativeDir:   filepath.Join(root, "documents"),
		NormativeIndex: filepath.Join(root, "idx"),
		TTDir:          filepath.Join(root, "documents_tt"),
		TTIndex:        filepath.Join(root, "idx_tt"),
	}
	writeNormativeCorpus(t, settings.NormativeDir)

	built, err := BuildCorpora(context.Background(), newTestIndexService(t, &fakeEmbedder{}, 32),
		settings, domain.AllCorpora(), false)

	require.NoError(t, err)
	assert.Contains(t, built, domain.CorpusNormative)
	assert.NotContains(t, built, domain.CorpusTT)
	assert.Equal(t, "normative", built[domain.CorpusNormative].Manifest().Corpus)
}

func TestBuildCorpora_MissingNormativeDirectory(t *testing.T) {
	root := t.TempDir()
	settings := domain.CorpusSettings{
		NormativeDir:   filepath.Join(root, "documents"),
		NormativeIndex: filepath.Join(root, "idx"),
	}

	_, err := BuildCorpora(context.Background(), newTestIndexService(t, &fakeEmbedder{}, 32),
		settings, []domain.Corpus{domain.CorpusNormative}, false)

	assert.ErrorIs(t, err, domain.ErrCorpusNotFound)
}

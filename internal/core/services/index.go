package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// Suffixes of the sibling paths used while building an index.
const (
	lockSuffix     = ".lock"
	buildingSuffix = ".building-"
	replacedSuffix = ".old-"
)

// DefaultEmbedBatchSize is used when IndexOptions.BatchSize is not positive.
const DefaultEmbedBatchSize = 32

// VectorIndexFactory creates an empty vector index. A dimension of zero
// lets the first vector fix it.
type VectorIndexFactory func(dimensions int) driven.VectorIndex

// IndexOptions tunes index builds.
type IndexOptions struct {
	// Chunking is recorded in the manifest.
	Chunking domain.ChunkingSettings

	// BatchSize is the number of chunks per embedding request.
	BatchSize int
}

// IndexService builds, persists and loads corpus indexes.
type IndexService struct {
	loader   *Loader
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	store    driven.IndexStore
	newIndex VectorIndexFactory
	opts     IndexOptions
}

// NewIndexService creates an index service.
func NewIndexService(
	loader *Loader,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	store driven.IndexStore,
	newIndex VectorIndexFactory,
	opts IndexOptions,
) *IndexService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultEmbedBatchSize
	}
	return &IndexService{
		loader:   loader,
		pipeline: pipeline,
		embedder: embedder,
		store:    store,
		newIndex: newIndex,
		opts:     opts,
	}
}

// BuildOrLoad loads the index at persistPath if both artifacts exist and
// builds it from corpusPath otherwise. The existence check does not
// validate the artifacts.
func (s *IndexService) BuildOrLoad(ctx context.Context, corpusPath, persistPath string) (driving.Index, error) {
	return s.Build(ctx, corpusPath, persistPath, false)
}

// Build builds an index from corpusPath and publishes it at persistPath.
// Without force an existing index is loaded instead. With force the old
// index is replaced only once the new one is complete.
// Concurrent builds of the same location fail with domain.ErrBuildInProgress.
func (s *IndexService) Build(ctx context.Context, corpusPath, persistPath string, force bool) (driving.Index, error) {
	return s.BuildCorpus(ctx, "", corpusPath, persistPath, force)
}

// BuildCorpus is Build with the corpus name recorded in the manifest.
func (s *IndexService) BuildCorpus(
	ctx context.Context,
	corpus domain.Corpus,
	corpusPath, persistPath string,
	force bool,
) (driving.Index, error) {
	if !force && s.store.Exists(persistPath) {
		logger.Info("Loading existing index from %s", persistPath)
		return s.Load(ctx, persistPath)
	}

	release, err := acquireLock(persistPath)
	if err != nil {
		return nil, err
	}
	defer release()

	// Another build may have published between the check and the lock.
	if !force && s.store.Exists(persistPath) {
		return s.Load(ctx, persistPath)
	}
	removeStaleBuilds(persistPath)

	logger.Section("Building index " + persistPath)
	start := time.Now()

	manifest, docs, chunks, err := s.prepare(ctx, corpusPath)
	if err != nil {
		return nil, err
	}
	manifest.Corpus = corpus.String()

	tmp := persistPath + buildingSuffix + uuid.New().String()
	if err := s.store.Save(ctx, tmp, manifest, docs, chunks); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, fmt.Errorf("persist index: %w", err)
	}
	if err := publish(tmp, persistPath); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, err
	}

	idx, err := newLoadedIndex(manifest, chunks, s.embedder, s.newIndex)
	if err != nil {
		return nil, err
	}
	logger.Info("Built index %s: %d documents, %d chunks in %s",
		persistPath, manifest.Documents, manifest.Chunks, time.Since(start).Round(time.Millisecond))
	return idx, nil
}

// prepare loads, chunks and embeds a corpus.
func (s *IndexService) prepare(
	ctx context.Context,
	corpusPath string,
) (domain.IndexManifest, []domain.Document, []domain.Chunk, error) {
	var manifest domain.IndexManifest

	result, err := s.loader.Load(ctx, corpusPath)
	if err != nil {
		return manifest, nil, nil, err
	}
	if len(result.Documents) == 0 {
		return manifest, nil, nil, fmt.Errorf("%w: %s", domain.ErrEmptyCorpus, corpusPath)
	}

	chunks, err := s.pipeline.ProcessAll(ctx, result.Documents)
	if err != nil {
		return manifest, nil, nil, err
	}
	if len(chunks) == 0 {
		return manifest, nil, nil, fmt.Errorf("%w: %s produced no chunks", domain.ErrEmptyCorpus, corpusPath)
	}
	logger.Info("Split %d documents into %d chunks", len(result.Documents), len(chunks))

	dims, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return manifest, nil, nil, err
	}

	absPath, err := filepath.Abs(corpusPath)
	if err != nil {
		absPath = corpusPath
	}
	manifest = domain.IndexManifest{
		Version:        domain.ManifestVersion,
		CorpusPath:     absPath,
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     dims,
		Documents:      len(result.Documents),
		Chunks:         len(chunks),
		ChunkSize:      s.opts.Chunking.Size,
		ChunkOverlap:   s.opts.Chunking.Overlap,
		BuiltAt:        time.Now().UTC(),
	}
	return manifest, result.Documents, chunks, nil
}

// embedChunks fills in chunk embeddings in batches and returns the vector size.
// Embedding failures are never retried.
func (s *IndexService) embedChunks(ctx context.Context, chunks []domain.Chunk) (int, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := s.embedder.Ping(pingCtx)
	cancel()
	if err != nil {
		return 0, embeddingError(err)
	}

	dims := 0
	for start := 0; start < len(chunks); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, chunks[i].Content)
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, embeddingError(err)
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("%w: got %d embeddings for %d chunks",
				domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
		}
		for i, vec := range vectors {
			if len(vec) == 0 {
				return 0, fmt.Errorf("%w: empty embedding for chunk %d", domain.ErrEmbeddingUnavailable, start+i)
			}
			if dims == 0 {
				dims = len(vec)
			} else if len(vec) != dims {
				return 0, fmt.Errorf("%w: embedding size changed from %d to %d",
					domain.ErrEmbeddingUnavailable, dims, len(vec))
			}
			chunks[start+i].Embedding = vec
		}
		logger.Debug("Embedded %d/%d chunks", end, len(chunks))
	}
	return dims, nil
}

func embeddingError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w (check that the embedding service is running and the model is available)",
		domain.ErrEmbeddingUnavailable, err)
}

// Load loads the index at persistPath.
func (s *IndexService) Load(ctx context.Context, persistPath string) (driving.Index, error) {
	if !s.store.Exists(persistPath) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexMissing, persistPath)
	}
	stored, err := s.store.Load(ctx, persistPath)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", persistPath, err)
	}

	if model := s.embedder.ModelName(); stored.Manifest.EmbeddingModel != "" && model != stored.Manifest.EmbeddingModel {
		logger.Warn("Index %s was built with %s but queries use %s; rebuild with --force",
			persistPath, stored.Manifest.EmbeddingModel, model)
	}

	idx, err := newLoadedIndex(stored.Manifest, stored.Chunks, s.embedder, s.newIndex)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", persistPath, err)
	}
	logger.Info("Loaded index %s (%d chunks)", persistPath, idx.Len())
	return idx, nil
}

// Status reports whether an index is persisted at persistPath.
func (s *IndexService) Status(corpus domain.Corpus, persistPath string) domain.IndexStatus {
	status := domain.IndexStatus{
		Corpus:      corpus,
		PersistPath: persistPath,
		Built:       s.store.Exists(persistPath),
	}
	if status.Built {
		manifest, err := s.store.ReadManifest(persistPath)
		if err != nil {
			logger.Warn("Reading manifest of %s: %v", persistPath, err)
		} else {
			status.Manifest = manifest
		}
	}
	return status
}

// acquireLock creates <persistPath>.lock exclusively and records the pid.
// The returned function removes the lock.
func acquireLock(persistPath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(persistPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index parent directory: %w", err)
	}

	lockPath := persistPath + lockSuffix
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			holder := "unknown process"
			if data, readErr := os.ReadFile(lockPath); readErr == nil {
				if pid, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil {
					holder = "pid " + strconv.Itoa(pid)
				}
			}
			return nil, fmt.Errorf("%w: %s is held by %s (remove it if no build is running)",
				domain.ErrBuildInProgress, lockPath, holder)
		}
		return nil, fmt.Errorf("create lock: %w", err)
	}
	_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()))
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("write lock: %w", err)
	}

	return func() {
		if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Removing lock %s: %v", lockPath, err)
		}
	}, nil
}

// removeStaleBuilds deletes temporary directories left by interrupted
// builds. It must only run while holding the lock.
func removeStaleBuilds(persistPath string) {
	for _, suffix := range []string{buildingSuffix, replacedSuffix} {
		matches, err := filepath.Glob(persistPath + suffix + "*")
		if err != nil {
			continue
		}
		for _, m := range matches {
			logger.Warn("Removing leftover %s", m)
			_ = os.RemoveAll(m)
		}
	}
}

// publish renames tmp into place. Anything already at persistPath is moved
// aside first and restored if the rename fails.
func publish(tmp, persistPath string) error {
	var aside string
	if _, err := os.Lstat(persistPath); err == nil {
		aside = persistPath + replacedSuffix + uuid.New().String()
		if err := os.Rename(persistPath, aside); err != nil {
			return fmt.Errorf("move old index aside: %w", err)
		}
	}

	if err := os.Rename(tmp, persistPath); err != nil {
		if aside != "" {
			_ = os.Rename(aside, persistPath)
		}
		return fmt.Errorf("publish index: %w", err)
	}

	if aside != "" {
		if err := os.RemoveAll(aside); err != nil {
			logger.Warn("Removing replaced index %s: %v", aside, err)
		}
	}
	return nil
}

// loadedIndex is a read-only index held in memory.
type loadedIndex struct {
	manifest domain.IndexManifest
	chunks   []domain.Chunk
	byID     map[string]int
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService
}

func newLoadedIndex(
	manifest domain.IndexManifest,
	chunks []domain.Chunk,
	embedder driven.EmbeddingService,
	newIndex VectorIndexFactory,
) (*loadedIndex, error) {
	vectors := newIndex(manifest.Dimensions)
	byID := make(map[string]int, len(chunks))
	for i := range chunks {
		if err := vectors.Add(chunks[i].ID, chunks[i].Embedding); err != nil {
			return nil, fmt.Errorf("index chunk %s: %w", chunks[i].ID, err)
		}
		byID[chunks[i].ID] = i
	}
	return &loadedIndex{
		manifest: manifest,
		chunks:   chunks,
		byID:     byID,
		vectors:  vectors,
		embedder: embedder,
	}, nil
}

// Search embeds query and ranks chunks according to profile.
func (idx *loadedIndex) Search(
	ctx context.Context,
	query string,
	profile domain.RetrievalProfile,
) ([]domain.RetrievedChunk, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	vec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, embeddingError(err)
	}
	if dims := idx.vectors.Dimensions(); dims != 0 && len(vec) != dims {
		return nil, fmt.Errorf("%w: query embedding has %d dimensions, index has %d",
			domain.ErrEmbeddingUnavailable, len(vec), dims)
	}

	var hits []driven.VectorHit
	switch profile.Strategy {
	case domain.StrategyMMR:
		hits = idx.vectors.MMR(vec, profile.K, profile.FetchK, profile.Lambda)
	default:
		hits = idx.vectors.Search(vec, profile.K)
	}

	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		pos, ok := idx.byID[hit.ChunkID]
		if !ok {
			continue
		}
		results = append(results, domain.RetrievedChunk{
			Chunk: idx.chunks[pos],
			Rank:  len(results) + 1,
			Score: hit.Similarity,
		})
	}
	return results, nil
}

func (idx *loadedIndex) Manifest() domain.IndexManifest {
	return idx.manifest
}

func (idx *loadedIndex) Len() int {
	return len(idx.chunks)
}

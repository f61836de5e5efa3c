package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/normrag/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/postprocessors"
)

const fakeDims = 32

// fakeEmbedder hashes lower-cased words into a fixed-size bag-of-words vector.
type fakeEmbedder struct {
	mu         sync.Mutex
	pingErr    error
	batchErr   error
	failAfter  int // fail EmbedBatch after this many successful calls, when > 0
	embedErr   error
	batchCalls int
	model      string
}

func (e *fakeEmbedder) vector(text string) []float32 {
	vec := make([]float32, fakeDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%fakeDims]++
	}
	return vec
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	return e.vector(text), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.batchErr != nil && e.batchCalls >= e.failAfter {
		return nil, e.batchErr
	}
	e.batchCalls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *fakeEmbedder) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batchCalls
}

func (e *fakeEmbedder) Dimensions() int { return fakeDims }

func (e *fakeEmbedder) ModelName() string {
	if e.model != "" {
		return e.model
	}
	return "fake-embed"
}

func (e *fakeEmbedder) Ping(context.Context) error { return e.pingErr }
func (e *fakeEmbedder) Close() error               { return nil }

func newFlatIndex(dims int) driven.VectorIndex {
	return flat.New(dims)
}

func newTestPipeline(t *testing.T, chunking domain.ChunkingSettings) driven.PostProcessorPipeline {
	t.Helper()
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(domain.PipelineConfigFor(chunking))
	require.NoError(t, err)
	return pipeline
}

func newTestIndexService(t *testing.T, embedder driven.EmbeddingService, batchSize int) *IndexService {
	t.Helper()
	chunking := domain.ChunkingSettings{Size: 200, Overlap: 20}
	return NewIndexService(
		newTestLoader(),
		newTestPipeline(t, chunking),
		embedder,
		sqlite.NewIndexStore(),
		newFlatIndex,
		IndexOptions{Chunking: chunking, BatchSize: batchSize},
	)
}

// writeNormativeCorpus writes a small regulatory corpus into dir.
func writeNormativeCorpus(t *testing.T, dir string) {
	t.Helper()
	writeCorpusFile(t, dir, "СП_4.04.07-2025.pdf",
		"%PDF-1.4\n4.2 Заземление\n4.2.3 Сопротивление заземляющего устройства не должно превышать 4 Ом.")
	writeCorpusFile(t, dir, "ПУЭ_1.7.txt",
		"1. Общие положения\n1.7.1 Настоящая глава распространяется на электроустановки переменного тока.")
	writeCorpusFile(t, dir, "guide.md",
		"# Кабельные линии\n\n2.3.1 Кабели прокладываются в траншеях на глубине не менее 0,7 м.")
}

// fakeIndex serves a fixed result list.
type fakeIndex struct {
	results  []domain.RetrievedChunk
	err      error
	profiles []domain.RetrievalProfile
	queries  []string
	manifest domain.IndexManifest
}

func (f *fakeIndex) Search(_ context.Context, query string, profile domain.RetrievalProfile) ([]domain.RetrievedChunk, error) {
	f.queries = append(f.queries, query)
	f.profiles = append(f.profiles, profile)
	return f.results, f.err
}

func (f *fakeIndex) Manifest() domain.IndexManifest { return f.manifest }
func (f *fakeIndex) Len() int                       { return len(f.results) }

// fakeLLM records prompts and returns scripted replies.
type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions
	errs    []error // returned by successive calls, nil entries succeed
	reply   string
	block   bool // wait for ctx cancellation
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	call := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	var err error
	if call < len(f.errs) {
		err = f.errs[call]
	}
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return f.reply, nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

// fakePrompts serves fixed templates.
type fakePrompts struct{}

func (fakePrompts) Load(name string) (string, error) {
	return name + "|context=%[1]s|question=%[2]s", nil
}

func (fakePrompts) Reload() {}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// chanConnector replays changes pushed by the test.
type chanConnector struct {
	changes chan domain.RawDocumentChange
	closed  bool
}

func (c *chanConnector) Type() string                   { return "test" }
func (c *chanConnector) Validate(context.Context) error { return nil }
func (c *chanConnector) FullSync(context.Context) (<-chan domain.RawDocument, <-chan error) {
	return nil, nil
}
func (c *chanConnector) Watch(context.Context) (<-chan domain.RawDocumentChange, error) {
	return c.changes, nil
}
func (c *chanConnector) Close() error {
	c.closed = true
	return nil
}

type chanFactory struct {
	connectors map[string]*chanConnector
	err        error
}

func (f *chanFactory) Create(root string) (driven.Connector, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.connectors[root], nil
}

type rebuildRecorder struct {
	mu    sync.Mutex
	calls []domain.Corpus
}

func (r *rebuildRecorder) rebuild(_ context.Context, corpus domain.Corpus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, corpus)
	return nil
}

func (r *rebuildRecorder) snapshot() []domain.Corpus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Corpus(nil), r.calls...)
}

func change(uri string) domain.RawDocumentChange {
	return domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: domain.RawDocument{URI: uri}}
}

func TestIndexWatcher_DebouncesBursts(t *testing.T) {
	normative := &chanConnector{changes: make(chan domain.RawDocumentChange, 8)}
	tt := &chanConnector{changes: make(chan domain.RawDocumentChange, 8)}
	factory := &chanFactory{connectors: map[string]*chanConnector{"docs": normative, "docs_tt": tt}}
	recorder := &rebuildRecorder{}
	watcher := NewIndexWatcher(factory, recorder.rebuild, 30*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- watcher.Start(context.Background(), []WatchTarget{
			{Corpus: domain.CorpusNormative, Dir: "docs"},
			{Corpus: domain.CorpusTT, Dir: "docs_tt"},
		})
	}()

	normative.changes <- change("a.pdf")
	normative.changes <- change("b.pdf")
	normative.changes <- change("c.pdf")

	require.Eventually(t, func() bool {
		return len(recorder.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []domain.Corpus{domain.CorpusNormative}, recorder.snapshot())

	tt.changes <- change("tt.txt")
	require.Eventually(t, func() bool {
		return len(recorder.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.CorpusTT, recorder.snapshot()[1])

	require.NoError(t, watcher.Stop())
	require.NoError(t, <-done)
	assert.True(t, normative.closed)
	assert.True(t, tt.closed)
}

func TestIndexWatcher_ContextCancel(t *testing.T) {
	conn := &chanConnector{changes: make(chan domain.RawDocumentChange)}
	factory := &chanFactory{connectors: map[string]*chanConnector{"docs": conn}}
	watcher := NewIndexWatcher(factory, (&rebuildRecorder{}).rebuild, 0)
	assert.Equal(t, DefaultWatchDebounce, watcher.debounce)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Start(ctx, []WatchTarget{{Corpus: domain.CorpusNormative, Dir: "docs"}})
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestIndexWatcher_CreateError(t *testing.T) {
	factory := &chanFactory{err: errors.New("no such directory")}
	watcher := NewIndexWatcher(factory, (&rebuildRecorder{}).rebuild, time.Millisecond)

	err := watcher.Start(context.Background(), []WatchTarget{{Corpus: domain.CorpusNormative, Dir: "docs"}})

	assert.ErrorContains(t, err, "no such directory")
	require.NoError(t, watcher.Stop())
}

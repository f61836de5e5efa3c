package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/logger"
)

// DefaultWatchDebounce is how long a corpus must stay quiet before it is rebuilt.
const DefaultWatchDebounce = 2 * time.Second

// WatchTarget is a corpus directory to watch.
type WatchTarget struct {
	Corpus domain.Corpus
	Dir    string
}

// RebuildFunc rebuilds the index of one corpus.
type RebuildFunc func(ctx context.Context, corpus domain.Corpus) error

// IndexWatcher rebuilds corpus indexes when their documents change.
// Bursts of changes within the debounce window cause a single rebuild,
// and rebuilds of one corpus never overlap.
type IndexWatcher struct {
	connectors driven.ConnectorFactory
	rebuild    RebuildFunc
	debounce   time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewIndexWatcher creates a watcher. A non-positive debounce uses DefaultWatchDebounce.
func NewIndexWatcher(connectors driven.ConnectorFactory, rebuild RebuildFunc, debounce time.Duration) *IndexWatcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &IndexWatcher{
		connectors: connectors,
		rebuild:    rebuild,
		debounce:   debounce,
	}
}

// Start watches targets until ctx is cancelled or Stop is called.
func (w *IndexWatcher) Start(ctx context.Context, targets []WatchTarget) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, target := range targets {
		connector, err := w.connectors.Create(target.Dir)
		if err != nil {
			cancel()
			w.wg.Wait()
			return fmt.Errorf("watch %s: %w", target.Dir, err)
		}
		changes, err := connector.Watch(watchCtx)
		if err != nil {
			_ = connector.Close()
			cancel()
			w.wg.Wait()
			return fmt.Errorf("watch %s: %w", target.Dir, err)
		}
		logger.Info("Watching %s for %s corpus changes", target.Dir, target.Corpus)

		w.wg.Add(1)
		go func(corpus domain.Corpus, c driven.Connector) {
			defer w.wg.Done()
			defer c.Close()
			w.loop(watchCtx, corpus, changes)
		}(target.Corpus, connector)
	}

	select {
	case <-ctx.Done():
	case <-stopCh:
	}
	cancel()
	w.wg.Wait()

	return ctx.Err()
}

// Stop ends a running Start and waits for in-flight rebuilds.
func (w *IndexWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

// loop debounces changes of one corpus and rebuilds it.
func (w *IndexWatcher) loop(ctx context.Context, corpus domain.Corpus, changes <-chan domain.RawDocumentChange) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case change, ok := <-changes:
			if !ok {
				timer.Stop()
				return
			}
			logger.Debug("%s: %s %s", corpus, change.Type, change.Document.URI)
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true
		case <-timer.C:
			pending = false
			logger.Info("Documents of the %s corpus changed, rebuilding", corpus)
			if err := w.rebuild(ctx, corpus); err != nil {
				logger.Error("Rebuilding %s index: %v", corpus, err)
			}
		}
	}
}

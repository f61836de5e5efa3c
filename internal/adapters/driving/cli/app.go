package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/normrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/normrag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/normrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/normrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/normrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/normrag/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/normrag/internal/connectors/filesystem"
	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
	"github.com/custodia-labs/normrag/internal/core/services"
	"github.com/custodia-labs/normrag/internal/logger"
	"github.com/custodia-labs/normrag/internal/normalisers"
	"github.com/custodia-labs/normrag/internal/postprocessors"
	"github.com/custodia-labs/normrag/internal/workerpool"
)

// shutdownTimeout bounds how long Close waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Indexer builds and inspects corpus indexes.
type Indexer interface {
	driving.IndexService
	services.CorpusBuilder
}

// AppOptions selects where settings and chat history are kept.
type AppOptions struct {
	// ConfigPath is an explicit config file. Empty uses ~/.normrag/config.toml.
	ConfigPath string

	// Ephemeral keeps settings and chat history in memory.
	Ephemeral bool
}

// App holds the services the commands run against. The index and chat
// services are created on first use so that commands which only read
// settings need no running backend.
type App struct {
	Settings   driving.SettingsService
	ConfigPath string

	connectors  driven.ConnectorFactory
	prompts     driven.PromptStore
	chats       driven.ChatStore
	newEmbedder func(ctx context.Context, s *domain.EmbeddingSettings) (driven.EmbeddingService, error)
	newLLM      func(ctx context.Context, s *domain.LLMSettings) (driven.LLMService, error)

	mu       sync.Mutex
	indexer  Indexer
	corpora  *services.Corpora
	chat     driving.ChatService
	sessions driving.SessionService
	closers  []func() error
}

// NewApp wires the settings, prompt and chat history stores.
func NewApp(opts AppOptions) (*App, error) {
	a := &App{
		connectors:  filesystem.Factory{},
		newEmbedder: ai.CreateAndValidateEmbeddingService,
		newLLM:      ai.CreateAndValidateLLMService,
	}

	if opts.Ephemeral {
		a.Settings = services.NewSettingsService(env.New(memory.NewConfigStore()), ai.NewConfigValidator())
		a.chats = memory.NewChatStore()
		prompts, err := file.NewPromptStore(filepath.Join(os.TempDir(), "normrag-prompts"))
		if err != nil {
			return nil, err
		}
		a.prompts = prompts
		return a, nil
	}

	dataDir, err := dataDirFor(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(dataDir, file.ConfigFile)
	}

	store, err := file.NewConfigStoreAt(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	a.ConfigPath = store.Path()
	a.Settings = services.NewSettingsService(env.New(store), ai.NewConfigValidator())

	prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		return nil, err
	}
	a.prompts = prompts

	chats, err := sqlite.NewChatStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open chat history: %w", err)
	}
	a.chats = chats
	a.closers = append(a.closers, chats.Close)
	return a, nil
}

// dataDirFor returns the directory holding config, prompts and history.
func dataDirFor(configPath string) (string, error) {
	if configPath != "" {
		return filepath.Dir(configPath), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".normrag"), nil
}

// Indexer returns the index service, creating it on first use.
// Creating it checks that the embedding service is reachable.
func (a *App) Indexer(ctx context.Context) (Indexer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.indexerLocked(ctx)
}

func (a *App) indexerLocked(ctx context.Context) (Indexer, error) {
	if a.indexer != nil {
		return a.indexer, nil
	}
	if a.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := a.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	embedder, err := a.newEmbedder(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, embedder.Close)

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(domain.PipelineConfigFor(settings.Chunking))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	loader := services.NewLoader(a.connectors, normalisers.DefaultRegistry(nil))
	a.indexer = services.NewIndexService(
		loader,
		pipeline,
		embedder,
		sqlite.NewIndexStore(),
		func(dimensions int) driven.VectorIndex { return flat.New(dimensions) },
		services.IndexOptions{Chunking: settings.Chunking, BatchSize: settings.Embedding.BatchSize},
	)
	return a.indexer, nil
}

// Corpora loads both corpus indexes, creating them on first use.
func (a *App) Corpora(ctx context.Context) (*services.Corpora, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.corporaLocked(ctx)
}

func (a *App) corporaLocked(ctx context.Context) (*services.Corpora, error) {
	if a.corpora != nil {
		return a.corpora, nil
	}
	settings, err := a.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	indexer, err := a.indexerLocked(ctx)
	if err != nil {
		return nil, err
	}
	corpora, err := services.OpenCorpora(ctx, indexer, settings.Corpora)
	if err != nil {
		return nil, err
	}
	a.corpora = corpora
	return corpora, nil
}

// Chat returns the chat service, creating it on first use. An unreachable
// LLM is not fatal: requests are then answered with an error message.
func (a *App) Chat(ctx context.Context) (driving.ChatService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chat != nil {
		return a.chat, nil
	}
	settings, err := a.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	corpora, err := a.corporaLocked(ctx)
	if err != nil {
		return nil, err
	}

	var llm driven.LLMService
	if svc, err := a.newLLM(ctx, &settings.LLM); err != nil {
		logger.Warn("%v", err)
	} else {
		llm = svc
		a.closers = append(a.closers, svc.Close)
	}

	pool := workerpool.New(settings.Pool.Workers, settings.Pool.Queue)
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return pool.Shutdown(ctx)
	})

	formatter := services.NewContextFormatter(services.LabelsFor(settings.Format.Labels))
	a.chat = services.NewChatService(
		corpora,
		services.NewRetrievalService(formatter),
		a.prompts,
		llm,
		pool,
		a.chats,
		services.ChatOptionsFrom(settings),
	)
	return a.chat, nil
}

// Sessions returns the session service. It needs neither the indexes nor
// the AI backends.
func (a *App) Sessions() driving.SessionService {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.sessions != nil:
		return a.sessions
	case a.chat != nil:
		return a.chat
	}
	a.sessions = services.NewSessionService(a.chats)
	return a.sessions
}

// Connectors returns the factory used to read and watch corpus directories.
func (a *App) Connectors() driven.ConnectorFactory {
	return a.connectors
}

// Close releases everything the app opened, newest first.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	a.closers = nil
}

package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/normrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/normrag/internal/connectors/filesystem"
	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
	"github.com/custodia-labs/normrag/internal/core/services"
)

// setupTestApp installs an App backed by in-memory stores and returns it.
// The previous app is restored when the test ends.
func setupTestApp(t *testing.T) *App {
	t.Helper()
	chats := memory.NewChatStore()
	a := &App{
		Settings:   services.NewSettingsService(memory.NewConfigStore(), nil),
		connectors: filesystem.Factory{},
		chats:      chats,
	}
	prev := app
	app = a
	t.Cleanup(func() { app = prev })
	return a
}

// runCLI executes the root command with args and returns its combined output.
// Flags are reset afterwards so tests do not leak values into each other.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// fakeIndex is a fixed-result driving.Index.
type fakeIndex struct {
	results  []domain.RetrievedChunk
	manifest domain.IndexManifest
	profiles []domain.RetrievalProfile
	queries  []string
}

func (f *fakeIndex) Search(_ context.Context, query string, profile domain.RetrievalProfile) ([]domain.RetrievedChunk, error) {
	f.queries = append(f.queries, query)
	f.profiles = append(f.profiles, profile)
	return f.results, nil
}

func (f *fakeIndex) Manifest() domain.IndexManifest { return f.manifest }
func (f *fakeIndex) Len() int                       { return f.manifest.Chunks }

// fakeIndexer records builds and reports statuses by persist path.
type fakeIndexer struct {
	mu       sync.Mutex
	statuses map[string]domain.IndexStatus
	errs     map[domain.Corpus]error
	builds   []domain.Corpus
	forced   []bool
}

func (f *fakeIndexer) BuildCorpus(
	_ context.Context,
	corpus domain.Corpus,
	corpusPath, _ string,
	force bool,
) (driving.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds = append(f.builds, corpus)
	f.forced = append(f.forced, force)
	if err := f.errs[corpus]; err != nil {
		return nil, err
	}
	return &fakeIndex{manifest: domain.IndexManifest{
		Corpus:     corpus.String(),
		CorpusPath: corpusPath,
		Documents:  2,
		Chunks:     17,
	}}, nil
}

func (f *fakeIndexer) BuildOrLoad(ctx context.Context, corpusPath, persistPath string) (driving.Index, error) {
	return f.BuildCorpus(ctx, "", corpusPath, persistPath, false)
}

func (f *fakeIndexer) Build(ctx context.Context, corpusPath, persistPath string, force bool) (driving.Index, error) {
	return f.BuildCorpus(ctx, "", corpusPath, persistPath, force)
}

func (f *fakeIndexer) Load(_ context.Context, _ string) (driving.Index, error) {
	return nil, domain.ErrIndexMissing
}

func (f *fakeIndexer) Status(corpus domain.Corpus, persistPath string) domain.IndexStatus {
	st := f.statuses[persistPath]
	st.Corpus = corpus
	st.PersistPath = persistPath
	return st
}

// askCall records one Ask invocation.
type askCall struct {
	session string
	text    string
	ui      domain.UIMode
}

// fakeChat answers every request with reply and records the calls.
type fakeChat struct {
	*services.SessionService

	mu      sync.Mutex
	reply   domain.ChatReply
	asks    []askCall
	mode    domain.Mode
	block   string
	context []askCall
}

func newFakeChat(a *App) *fakeChat {
	return &fakeChat{SessionService: services.NewSessionService(a.chats)}
}

func (f *fakeChat) Ask(_ context.Context, sessionID, text string, ui domain.UIMode) (*domain.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asks = append(f.asks, askCall{session: sessionID, text: text, ui: ui})
	reply := f.reply
	if reply.SessionID == "" {
		reply.SessionID = "s-fixed"
	}
	return &reply, nil
}

func (f *fakeChat) Context(_ context.Context, text string, ui domain.UIMode) (domain.Mode, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.context = append(f.context, askCall{text: text, ui: ui})
	return f.mode, f.block, nil
}

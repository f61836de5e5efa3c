package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/services"
	"github.com/custodia-labs/normrag/internal/logger"
)

const corpusAll = "all"

var (
	indexCorpus   string
	indexForce    bool
	watchDebounce time.Duration
)

var (
	statusOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	statusMissing = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	statusLabel   = lipgloss.NewStyle().Bold(true).Width(11)
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and inspect corpus indexes",
	Long: `Build, inspect and watch the vector indexes of the normative and TT corpora.

Each corpus directory is indexed independently and persisted to its own
location (see 'normrag config show').`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build corpus indexes",
	Long: `Build the index of each selected corpus. An index that already exists is
loaded instead unless --force is given; with --force the old index is
replaced only after the new one is complete.

A missing TT corpus directory is skipped with a warning.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

var indexWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild indexes when corpus files change",
	Long: `Watch the corpus directories and rebuild the affected index after changes
settle. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runIndexWatch,
}

func init() {
	indexBuildCmd.Flags().StringVar(&indexCorpus, "corpus", corpusAll, "corpus to build: normative, tt or all")
	indexBuildCmd.Flags().BoolVar(&indexForce, "force", false, "rebuild even if an index exists")
	indexWatchCmd.Flags().DurationVar(&watchDebounce, "debounce", services.DefaultWatchDebounce,
		"quiet period before a rebuild")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexWatchCmd)
	rootCmd.AddCommand(indexCmd)
}

// parseCorpora expands the --corpus flag.
func parseCorpora(name string) ([]domain.Corpus, error) {
	if name == corpusAll {
		return domain.AllCorpora(), nil
	}
	corpus := domain.Corpus(name)
	if !corpus.IsValid() {
		return nil, fmt.Errorf("%w: unknown corpus %q (want normative, tt or all)", domain.ErrInvalidInput, name)
	}
	return []domain.Corpus{corpus}, nil
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}
	corpora, err := parseCorpora(indexCorpus)
	if err != nil {
		return err
	}
	settings, err := app.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	indexer, err := app.Indexer(cmd.Context())
	if err != nil {
		return err
	}

	built, err := services.BuildCorpora(cmd.Context(), indexer, settings.Corpora, corpora, indexForce)
	for _, corpus := range corpora {
		idx, ok := built[corpus]
		if !ok {
			continue
		}
		m := idx.Manifest()
		cmd.Printf("%s %d chunks from %d documents in %s -> %s\n",
			statusLabel.Render(corpus.String()), m.Chunks, m.Documents,
			settings.Corpora.Dir(corpus), settings.Corpora.Index(corpus))
	}
	return err
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}
	settings, err := app.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	indexer, err := app.Indexer(cmd.Context())
	if err != nil {
		return err
	}

	for _, corpus := range domain.AllCorpora() {
		st := indexer.Status(corpus, settings.Corpora.Index(corpus))
		cmd.Println(formatStatus(st))
	}
	return nil
}

// formatStatus renders one corpus status line.
func formatStatus(st domain.IndexStatus) string {
	label := statusLabel.Render(st.Corpus.String())
	if !st.Built {
		return fmt.Sprintf("%s %s  %s", label, statusMissing.Render("not built"), st.PersistPath)
	}
	line := fmt.Sprintf("%s %s  %s", label, statusOK.Render("built"), st.PersistPath)
	if m := st.Manifest; m != nil {
		line += fmt.Sprintf("\n%s %d documents, %d chunks, %s (%d dims), %s",
			statusLabel.Render(""), m.Documents, m.Chunks, m.EmbeddingModel, m.Dimensions,
			m.BuiltAt.Local().Format(time.DateTime))
	}
	return line
}

func runIndexWatch(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}
	settings, err := app.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	indexer, err := app.Indexer(cmd.Context())
	if err != nil {
		return err
	}

	var targets []services.WatchTarget
	for _, corpus := range domain.AllCorpora() {
		dir := settings.Corpora.Dir(corpus)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.Warn("Not watching %s corpus: %s is not a directory", corpus, dir)
			continue
		}
		targets = append(targets, services.WatchTarget{Corpus: corpus, Dir: dir})
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: no corpus directory to watch", domain.ErrCorpusNotFound)
	}

	rebuild := func(ctx context.Context, corpus domain.Corpus) error {
		idx, err := indexer.BuildCorpus(ctx, corpus, settings.Corpora.Dir(corpus), settings.Corpora.Index(corpus), true)
		if err != nil {
			return err
		}
		cmd.Printf("%s rebuilt: %d chunks\n", statusLabel.Render(corpus.String()), idx.Len())
		return nil
	}

	watcher := services.NewIndexWatcher(app.Connectors(), rebuild, watchDebounce)
	for _, t := range targets {
		cmd.Printf("Watching %s (%s)\n", t.Dir, t.Corpus)
	}
	err = watcher.Start(cmd.Context(), targets)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

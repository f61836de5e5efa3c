// Package cli implements the normrag command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normrag/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	verbose    bool
	configFile string
	ephemeral  bool
)

// app holds the services the commands run against. It is created on the
// first command that needs it; tests assign it directly.
var app *App

var rootCmd = &cobra.Command{
	Use:   "normrag",
	Short: "Answer questions from regulatory documents",
	Long: `normrag answers questions about Russian regulatory documents (СП, ГОСТ, ПУЭ)
strictly from an indexed corpus, and drafts technical requirements (ТТ) from
reference documents.

Build the indexes once with 'normrag index build', then use 'normrag ask',
'normrag chat' or 'normrag mcp serve'.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupApp,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.normrag/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep settings and chat history in memory only")
}

func setupApp(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if app != nil {
		return nil
	}
	a, err := NewApp(AppOptions{ConfigPath: configFile, Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	app = a
	return nil
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and releases the services it opened.
func Execute(ctx context.Context) error {
	defer func() {
		if app != nil {
			app.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/services"
	"github.com/custodia-labs/normrag/internal/logger"
)

var (
	contextMode    string
	contextProfile string
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Print the context retrieved for a query",
	Long: `Retrieve chunks for a query and print the context block that would be
passed to the LLM, without generating an answer.

The mode selects the corpus. --profile overrides the retrieval profile of
the mode with a named one: search, tt or qa.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextMode, "mode", "m", string(domain.UIModeAuto), "response mode: auto, search or tt")
	contextCmd.Flags().StringVarP(&contextProfile, "profile", "p", "", "retrieval profile: search, tt or qa")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	ui, err := parseUIMode(contextMode)
	if err != nil {
		return err
	}
	if app == nil {
		return errors.New("chat service not configured")
	}
	text := strings.Join(args, " ")

	var (
		mode  domain.Mode
		block string
	)
	if contextProfile == "" {
		chat, err := app.Chat(cmd.Context())
		if err != nil {
			return err
		}
		mode, block, err = chat.Context(cmd.Context(), text, ui)
		if err != nil {
			return err
		}
	} else {
		mode, block, err = contextWithProfile(cmd, text, ui, contextProfile)
		if err != nil {
			return err
		}
	}

	logger.Info("Mode: %s", mode.Description())
	if block == "" {
		cmd.Println("No context found.")
		return nil
	}
	cmd.Println(block)
	return nil
}

// contextWithProfile retrieves context with a named profile instead of the mode's own.
func contextWithProfile(cmd *cobra.Command, text string, ui domain.UIMode, name string) (domain.Mode, string, error) {
	settings, err := app.Settings.Get()
	if err != nil {
		return "", "", fmt.Errorf("failed to get settings: %w", err)
	}
	profile, ok := settings.Retrieval.Named(name)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown profile %q (want search, tt or qa)", domain.ErrInvalidInput, name)
	}
	corpora, err := app.Corpora(cmd.Context())
	if err != nil {
		return "", "", err
	}

	mode := services.ClassifyMode(text, ui, settings.Mode)
	query := services.QueryText(text, settings.Mode.Marker)

	retrieval := services.NewRetrievalService(services.NewContextFormatter(services.LabelsFor(settings.Format.Labels)))
	retriever, err := retrieval.MakeRetriever(corpora.Index(mode.Corpus()), profile)
	if err != nil {
		return "", "", err
	}
	block, err := retrieval.Answer(cmd.Context(), retriever, query)
	if err != nil {
		return "", "", err
	}
	return mode, block, nil
}

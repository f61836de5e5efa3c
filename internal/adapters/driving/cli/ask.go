package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/services"
)

var (
	askMode    string
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Answer one question from the indexed documents.

The question is classified into search or TT mode unless --mode is given.
A question starting with /tt, or mentioning a TT keyword, is answered in
TT mode from the TT corpus.

The turn is recorded in a new chat session, or in --session if given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", string(domain.UIModeAuto), "response mode: auto, search or tt")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session ID to continue")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the reply as JSON")
	rootCmd.AddCommand(askCmd)
}

// parseUIMode validates a --mode flag.
func parseUIMode(name string) (domain.UIMode, error) {
	ui := domain.UIMode(name)
	if !ui.IsValid() {
		return "", fmt.Errorf("%w: unknown mode %q (want auto, search or tt)", domain.ErrInvalidInput, name)
	}
	return ui, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ui, err := parseUIMode(askMode)
	if err != nil {
		return err
	}
	if app == nil {
		return errors.New("chat service not configured")
	}
	chat, err := app.Chat(cmd.Context())
	if err != nil {
		return err
	}

	reply, err := chat.Ask(cmd.Context(), askSession, strings.Join(args, " "), ui)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(reply, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal reply: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if reply.IsError {
		return errors.New(reply.Content)
	}
	cmd.Println(reply.Content)
	printSources(cmd, reply.Sources)
	return nil
}

// printSources lists the documents that contributed context.
func printSources(cmd *cobra.Command, sources []domain.Source) {
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(dimStyle.Render("Sources:"))
	for _, src := range sources {
		line := "  " + services.DocumentName(src.Filename)
		if len(src.Sections) > 0 {
			line += " (" + strings.Join(src.Sections, ", ") + ")"
		}
		cmd.Println(dimStyle.Render(line))
	}
}

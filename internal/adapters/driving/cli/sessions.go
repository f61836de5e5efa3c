package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
	Long:  `List, show and delete recorded chat sessions.`,
	RunE:  runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	if app == nil {
		return errors.New("session service not configured")
	}
	sessions := app.Sessions()
	list, err := sessions.Sessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	current, err := sessions.CurrentSession(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get current session: %w", err)
	}
	printSessions(cmd, list, current)
	return nil
}

// printSessions lists sessions, marking current with an asterisk.
func printSessions(cmd *cobra.Command, sessions []domain.ChatSession, current string) {
	if len(sessions) == 0 {
		cmd.Println("No sessions.")
		return
	}
	for i := range sessions {
		s := &sessions[i]
		marker := " "
		if s.ID == current {
			marker = "*"
		}
		cmd.Printf("%s %s  %s  %3d  %s\n", marker, s.ID,
			s.UpdatedAt.Local().Format(time.DateTime), len(s.Messages), s.Title)
	}
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	if app == nil {
		return errors.New("session service not configured")
	}
	sessions := app.Sessions()
	session, err := sessions.Session(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	cmd.Println(promptStyle.Render(session.Title))
	cmd.Println(dimStyle.Render(fmt.Sprintf("%s, created %s", session.ID,
		session.CreatedAt.Local().Format(time.DateTime))))
	for _, m := range session.Messages {
		cmd.Println()
		label := "Вы"
		if m.Role == domain.RoleAssistant {
			label = "Ассистент"
		}
		if m.Mode != "" {
			label += " · " + m.Mode.Description()
		}
		cmd.Println(modeStyle.Render(label))
		if m.IsError {
			cmd.Println(errorStyle.Render(m.Content))
		} else {
			cmd.Println(m.Content)
		}
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	if app == nil {
		return errors.New("session service not configured")
	}
	sessions := app.Sessions()
	if err := sessions.DeleteSession(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	cmd.Printf("Deleted session %s\n", args[0])
	return nil
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
)

// maxLineBytes bounds a single REPL input line.
const maxLineBytes = 1 << 20

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	modeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

var (
	chatMode     string
	chatSession  string
	chatContinue bool
)

// chatHelp lists the REPL commands.
const chatHelp = `Commands:
  /mode [auto|search|tt]  Show or set the response mode
  /new                    Start a new session
  /sessions               List sessions
  /help                   Show commands
  /exit                   Quit`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat over the indexed documents.

Each line is answered in search or TT mode. Lines starting with /tt are
always answered in TT mode.

` + chatHelp,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMode, "mode", "m", string(domain.UIModeAuto), "response mode: auto, search or tt")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session ID to continue")
	chatCmd.Flags().BoolVarP(&chatContinue, "continue", "c", false, "continue the current session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ui, err := parseUIMode(chatMode)
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

	session := chatSession
	if session == "" && chatContinue {
		if session, err = chat.CurrentSession(cmd.Context()); err != nil {
			return fmt.Errorf("failed to get current session: %w", err)
		}
	}

	r := &repl{
		cmd:         cmd,
		chat:        chat,
		ui:          ui,
		session:     session,
		interactive: isTerminal(cmd.InOrStdin()),
		width:       terminalWidth(),
	}
	return r.run(cmd.Context(), cmd.InOrStdin())
}

// repl reads questions line by line and prints the replies.
type repl struct {
	cmd         *cobra.Command
	chat        driving.ChatService
	ui          domain.UIMode
	session     string
	interactive bool
	width       int
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if r.interactive {
		r.cmd.Println(dimStyle.Render("normrag chat. Type /help for commands, /exit to quit."))
	}
	for {
		r.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := r.handle(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func (r *repl) prompt() {
	if r.interactive {
		r.cmd.Print(modeStyle.Render("["+r.ui.Label()+"]") + " " + promptStyle.Render("> "))
	}
}

// handle runs a REPL command or asks line. It reports whether to quit.
func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		return true, nil
	case "/help":
		r.cmd.Println(chatHelp)
		return false, nil
	case "/new":
		session, err := r.chat.NewSession(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to create session: %w", err)
		}
		r.session = session.ID
		r.cmd.Println(dimStyle.Render("New session " + session.ID))
		return false, nil
	case "/mode":
		if len(fields) > 1 {
			ui, err := parseUIMode(fields[1])
			if err != nil {
				r.cmd.Println(errorStyle.Render(err.Error()))
				return false, nil
			}
			r.ui = ui
		}
		r.cmd.Println(dimStyle.Render("Mode: " + r.ui.Label()))
		return false, nil
	case "/sessions":
		sessions, err := r.chat.Sessions(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to list sessions: %w", err)
		}
		printSessions(r.cmd, sessions, r.session)
		return false, nil
	}

	return false, r.ask(ctx, line)
}

func (r *repl) ask(ctx context.Context, line string) error {
	reply, err := r.chat.Ask(ctx, r.session, line, r.ui)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	r.session = reply.SessionID

	if reply.IsError {
		r.cmd.Println(errorStyle.Render(reply.Content))
		return nil
	}
	if r.interactive {
		r.cmd.Println(modeStyle.Render(reply.Mode.Description()))
	}
	body := lipgloss.NewStyle()
	if r.width > 0 {
		body = body.Width(r.width)
	}
	r.cmd.Println(body.Render(reply.Content))
	printSources(r.cmd, reply.Sources)
	r.cmd.Println()
	return nil
}

// isTerminal reports whether in is an interactive terminal.
func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the stdout width, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

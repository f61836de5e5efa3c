package driving

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// ChatService answers chat requests in search or TT mode.
type ChatService interface {
	// Ask classifies text, retrieves context, and generates a reply.
	// Generation failures and timeouts are returned as an error reply,
	// not as an error. An empty sessionID starts a new session.
	Ask(ctx context.Context, sessionID, text string, ui domain.UIMode) (*domain.ChatReply, error)

	// Context returns the mode text is classified into and its context block,
	// without calling the generation backend.
	Context(ctx context.Context, text string, ui domain.UIMode) (domain.Mode, string, error)

	SessionService
}

// SessionService manages recorded chat sessions.
type SessionService interface {
	// NewSession creates an empty session and makes it current.
	NewSession(ctx context.Context) (*domain.ChatSession, error)

	// Sessions lists sessions, most recently updated first.
	Sessions(ctx context.Context) ([]domain.ChatSession, error)

	// Session returns a session by ID.
	Session(ctx context.Context, id string) (*domain.ChatSession, error)

	// CurrentSession returns the current session ID, or "" if none.
	CurrentSession(ctx context.Context) (string, error)

	// DeleteSession removes a session.
	DeleteSession(ctx context.Context, id string) error
}

package driven

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// ChatStore persists chat sessions.
type ChatStore interface {
	// Save creates or replaces a session with all its messages.
	Save(ctx context.Context, session *domain.ChatSession) error

	// Get returns a session by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.ChatSession, error)

	// List returns all sessions, most recently updated first.
	List(ctx context.Context) ([]domain.ChatSession, error)

	// Delete removes a session. Deleting a missing session returns domain.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// SetCurrent records the session the user last worked in.
	SetCurrent(ctx context.Context, id string) error

	// Current returns the current session ID, or "" if none is set.
	Current(ctx context.Context) (string, error)
}

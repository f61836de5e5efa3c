package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/normrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// HistoryFile is the chat history database name.
const HistoryFile = "history.db"

const currentSessionKey = "current_session"

var _ driven.ChatStore = (*ChatStore)(nil)

// ChatStore persists chat sessions in history.db.
type ChatStore struct {
	db   *sql.DB
	path string
}

// NewChatStore opens dataDir/history.db, creating it if needed.
// If dataDir is empty, defaults to ~/.normrag.
func NewChatStore(dataDir string) (*ChatStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".normrag")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, HistoryFile)
	db, err := openDB(path, migrations.History())
	if err != nil {
		return nil, err
	}
	return &ChatStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *ChatStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *ChatStore) Path() string {
	return s.path
}

// Save replaces the session row and all of its messages.
func (s *ChatStore) Save(ctx context.Context, session *domain.ChatSession) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at
	`, session.ID, session.Title, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (session_id, seq, role, content, mode, is_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range session.Messages {
		if _, err := stmt.ExecContext(ctx, session.ID, i, string(msg.Role), msg.Content,
			string(msg.Mode), msg.IsError, msg.CreatedAt); err != nil {
			return fmt.Errorf("saving message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get returns a session with its messages in order.
func (s *ChatStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, mode, is_error, created_at
		FROM messages WHERE session_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg domain.ChatMessage
		var role, mode string
		if err := rows.Scan(&role, &msg.Content, &mode, &msg.IsError, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = domain.Role(role)
		msg.Mode = domain.Mode(mode)
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return &session, nil
}

// List returns all sessions without messages, most recently updated first.
func (s *ChatStore) List(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession //nolint:prealloc // size unknown from query
	for rows.Next() {
		var session domain.ChatSession
		if err := rows.Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes a session and its messages. The current-session pointer
// is cleared if it named the deleted session.
func (s *ChatStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ? AND value = ?", currentSessionKey, id)
	if err != nil {
		return fmt.Errorf("clearing current session: %w", err)
	}
	return nil
}

// SetCurrent records id as the current session.
func (s *ChatStore) SetCurrent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, currentSessionKey, id)
	if err != nil {
		return fmt.Errorf("setting current session: %w", err)
	}
	return nil
}

// Current returns the current session ID, or "".
func (s *ChatStore) Current(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", currentSessionKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading current session: %w", err)
	}
	return id, nil
}

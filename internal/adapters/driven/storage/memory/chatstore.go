package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// Ensure ChatStore implements the interface.
var _ driven.ChatStore = (*ChatStore)(nil)

// ChatStore is an in-memory implementation of driven.ChatStore.
// Sessions are copied on the way in and out.
type ChatStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.ChatSession
	current  string
}

// NewChatStore creates a new in-memory chat store.
func NewChatStore() *ChatStore {
	return &ChatStore{
		sessions: make(map[string]domain.ChatSession),
	}
}

// Save creates or replaces a session.
func (s *ChatStore) Save(_ context.Context, session *domain.ChatSession) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(*session)
	return nil
}

// Get returns a session by ID.
func (s *ChatStore) Get(_ context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copySession(session)
	return &out, nil
}

// List returns sessions without messages, most recently updated first.
func (s *ChatStore) List(_ context.Context) ([]domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]domain.ChatSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		session.Messages = nil
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

// Delete removes a session.
func (s *ChatStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	if s.current == id {
		s.current = ""
	}
	return nil
}

// SetCurrent records the current session.
func (s *ChatStore) SetCurrent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
	return nil
}

// Current returns the current session ID.
func (s *ChatStore) Current(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func copySession(session domain.ChatSession) domain.ChatSession {
	if session.Messages != nil {
		session.Messages = append([]domain.ChatMessage(nil), session.Messages...)
	}
	return session
}

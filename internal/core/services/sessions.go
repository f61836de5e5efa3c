package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService manages recorded chat sessions.
type SessionService struct {
	store driven.ChatStore
}

// NewSessionService creates a session service over store.
func NewSessionService(store driven.ChatStore) *SessionService {
	return &SessionService{store: store}
}

func newSession() *domain.ChatSession {
	now := time.Now()
	return &domain.ChatSession{
		ID:        uuid.New().String(),
		Title:     domain.DefaultSessionTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewSession creates an empty session and makes it current.
func (s *SessionService) NewSession(ctx context.Context) (*domain.ChatSession, error) {
	session := newSession()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := s.store.SetCurrent(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("set current session: %w", err)
	}
	return session, nil
}

// Sessions lists sessions, most recently updated first.
func (s *SessionService) Sessions(ctx context.Context) ([]domain.ChatSession, error) {
	return s.store.List(ctx)
}

// Session returns a session with its messages.
func (s *SessionService) Session(ctx context.Context, id string) (*domain.ChatSession, error) {
	return s.store.Get(ctx, id)
}

// CurrentSession returns the current session ID, or "" if none.
func (s *SessionService) CurrentSession(ctx context.Context) (string, error) {
	return s.store.Current(ctx)
}

// DeleteSession removes a session.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

package mcp

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	reply    *domain.ChatReply
	mode     domain.Mode
	block    string
	sessions []domain.ChatSession
	session  *domain.ChatSession
	err      error

	lastSession string
	lastText    string
	lastUI      domain.UIMode
}

func (m *mockChatService) Ask(_ context.Context, sessionID, text string, ui domain.UIMode) (*domain.ChatReply, error) {
	m.lastSession, m.lastText, m.lastUI = sessionID, text, ui
	return m.reply, m.err
}

func (m *mockChatService) Context(_ context.Context, text string, ui domain.UIMode) (domain.Mode, string, error) {
	m.lastText, m.lastUI = text, ui
	return m.mode, m.block, m.err
}

func (m *mockChatService) NewSession(_ context.Context) (*domain.ChatSession, error) {
	return m.session, m.err
}

func (m *mockChatService) Sessions(_ context.Context) ([]domain.ChatSession, error) {
	return m.sessions, m.err
}

func (m *mockChatService) Session(_ context.Context, _ string) (*domain.ChatSession, error) {
	if m.session == nil && m.err == nil {
		return nil, domain.ErrNotFound
	}
	return m.session, m.err
}

func (m *mockChatService) CurrentSession(_ context.Context) (string, error) {
	if m.session == nil {
		return "", m.err
	}
	return m.session.ID, m.err
}

func (m *mockChatService) DeleteSession(_ context.Context, _ string) error {
	return m.err
}

// mockIndexStatus reports fixed statuses keyed by corpus.
type mockIndexStatus struct {
	statuses map[domain.Corpus]domain.IndexStatus
	paths    []string
}

func (m *mockIndexStatus) Status(corpus domain.Corpus, persistPath string) domain.IndexStatus {
	m.paths = append(m.paths, persistPath)
	st := m.statuses[corpus]
	st.Corpus = corpus
	st.PersistPath = persistPath
	return st
}

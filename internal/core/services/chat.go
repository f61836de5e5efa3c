package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/core/ports/driving"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// User-facing failure messages.
const (
	msgSearchTimeout = "Превышено время ожидания ответа. Попробуйте позже."
	msgTTTimeout     = "Превышено время ожидания генерации ТТ. Попробуйте сформулировать запрос проще."
	msgSearchError   = "Ошибка при обработке поискового запроса: %v"
	msgTTError       = "Ошибка при генерации технических требований: %v"
)

// ChatOptions tunes request handling.
type ChatOptions struct {
	Rules    domain.ModeRules
	Profiles domain.RetrievalProfiles

	// Timeout bounds each generation from submission to completion.
	Timeout time.Duration

	// Retries is the number of extra generation attempts after a failure.
	// Timeouts are not retried.
	Retries int

	// MaxTokens is passed to the LLM. Zero uses the provider default.
	MaxTokens int
}

// ChatOptionsFrom derives chat options from application settings.
func ChatOptionsFrom(s *domain.AppSettings) ChatOptions {
	return ChatOptions{
		Rules:     s.Mode,
		Profiles:  s.Retrieval,
		Timeout:   s.Pool.Timeout,
		Retries:   s.Pool.Retries,
		MaxTokens: s.LLM.MaxTokens,
	}
}

// ChatService answers requests in search or TT mode and records them in sessions.
type ChatService struct {
	*SessionService

	corpora    *Corpora
	retrieval  *RetrievalService
	prompts    driven.PromptStore
	llm        driven.LLMService
	dispatcher driven.Dispatcher
	opts       ChatOptions
}

// NewChatService creates a chat service. llm may be nil, in which case
// every request is answered with an error message.
func NewChatService(
	corpora *Corpora,
	retrieval *RetrievalService,
	prompts driven.PromptStore,
	llm driven.LLMService,
	dispatcher driven.Dispatcher,
	store driven.ChatStore,
	opts ChatOptions,
) *ChatService {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &ChatService{
		SessionService: NewSessionService(store),
		corpora:        corpora,
		retrieval:      retrieval,
		prompts:        prompts,
		llm:            llm,
		dispatcher:     dispatcher,
		opts:           opts,
	}
}

// Ask classifies text, retrieves context, generates a reply and appends both
// turns to the session. Retrieval and generation failures become an error
// reply; only caller cancellation and session storage errors are returned.
func (s *ChatService) Ask(ctx context.Context, sessionID, text string, ui domain.UIMode) (*domain.ChatReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty request", domain.ErrInvalidInput)
	}

	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	mode := ClassifyMode(text, ui, s.opts.Rules)
	reply := &domain.ChatReply{SessionID: session.ID, Mode: mode}
	asked := time.Now()

	content, chunks, err := s.generate(ctx, mode, text)
	switch {
	case err == nil:
		reply.Content = content
		reply.Sources = Sources(chunks)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		reply.IsError = true
		reply.TimedOut = errors.Is(err, domain.ErrTimedOut)
		reply.Content = failureMessage(mode, err)
		logger.Warn("Request in %s mode failed: %v", mode, err)
	}

	s.record(session, mode, text, reply, asked)
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := s.store.SetCurrent(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("set current session: %w", err)
	}
	return reply, nil
}

// generate runs retrieval and the generation call for one request.
func (s *ChatService) generate(ctx context.Context, mode domain.Mode, text string) (string, []domain.RetrievedChunk, error) {
	question := s.query(text)
	chunks, err := s.retrieve(ctx, mode, question)
	if err != nil {
		return "", nil, err
	}

	if s.llm == nil {
		return "", chunks, domain.ErrLLMUnavailable
	}

	template, err := s.prompts.Load(promptFor(mode))
	if err != nil {
		return "", chunks, fmt.Errorf("load prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, s.retrieval.Formatter().Format(chunks), question)

	opts := driven.GenerateOptions{
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Profiles.For(mode).Temperature,
	}
	task := func(ctx context.Context) (string, error) {
		return s.llm.Generate(ctx, prompt, opts)
	}

	var content string
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		content, err = s.dispatcher.Submit(ctx, s.opts.Timeout, task)
		if err == nil || errors.Is(err, domain.ErrTimedOut) || ctx.Err() != nil {
			break
		}
		if attempt < s.opts.Retries {
			logger.Debug("Generation attempt %d failed, retrying: %v", attempt+1, err)
		}
	}
	if err != nil {
		return "", chunks, err
	}
	return strings.TrimSpace(content), chunks, nil
}

// Context returns the mode text is classified into and its formatted
// context block without calling the LLM.
func (s *ChatService) Context(ctx context.Context, text string, ui domain.UIMode) (domain.Mode, string, error) {
	mode := ClassifyMode(text, ui, s.opts.Rules)
	chunks, err := s.retrieve(ctx, mode, s.query(text))
	if err != nil {
		return mode, "", err
	}
	return mode, s.retrieval.Formatter().Format(chunks), nil
}

func (s *ChatService) retrieve(ctx context.Context, mode domain.Mode, query string) ([]domain.RetrievedChunk, error) {
	r, err := s.retrieval.MakeRetriever(s.corpora.Index(mode.Corpus()), s.opts.Profiles.For(mode))
	if err != nil {
		return nil, err
	}
	return r.Retrieve(ctx, query)
}

func (s *ChatService) query(text string) string {
	return QueryText(text, s.opts.Rules.Marker)
}

func promptFor(mode domain.Mode) string {
	if mode == domain.ModeTT {
		return driven.PromptTT
	}
	return driven.PromptSearch
}

func failureMessage(mode domain.Mode, err error) string {
	timedOut := errors.Is(err, domain.ErrTimedOut)
	switch {
	case mode == domain.ModeTT && timedOut:
		return msgTTTimeout
	case mode == domain.ModeTT:
		return fmt.Sprintf(msgTTError, err)
	case timedOut:
		return msgSearchTimeout
	default:
		return fmt.Sprintf(msgSearchError, err)
	}
}

// record appends the user turn and the reply to session.
func (s *ChatService) record(session *domain.ChatSession, mode domain.Mode, text string, reply *domain.ChatReply, asked time.Time) {
	if !hasUserMessage(session) {
		session.Title = domain.SessionTitle(strings.TrimSpace(text))
	}
	now := time.Now()
	session.Messages = append(session.Messages,
		domain.ChatMessage{Role: domain.RoleUser, Content: text, Mode: mode, CreatedAt: asked},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: reply.Content, Mode: mode, IsError: reply.IsError, CreatedAt: now},
	)
	session.UpdatedAt = now
}

func hasUserMessage(session *domain.ChatSession) bool {
	for _, m := range session.Messages {
		if m.Role == domain.RoleUser {
			return true
		}
	}
	return false
}

func (s *ChatService) openSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	if id == "" {
		return newSession(), nil
	}
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return session, nil
}

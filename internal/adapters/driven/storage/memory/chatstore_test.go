package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

func newSession(id string, updated time.Time) *domain.ChatSession {
	return &domain.ChatSession{
		ID:        id,
		Title:     domain.DefaultSessionTitle,
		CreatedAt: updated,
		UpdatedAt: updated,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "Требования к заземлению", Mode: domain.ModeSearch},
		},
	}
}

func TestChatStore_SaveAndGet(t *testing.T) {
	store := NewChatStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newSession("s1", time.Now())))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, domain.RoleUser, got.Messages[0].Role)
}

func TestChatStore_IsolatesCallerCopies(t *testing.T) {
	store := NewChatStore()
	ctx := context.Background()
	session := newSession("s1", time.Now())
	require.NoError(t, store.Save(ctx, session))

	session.Messages[0].Content = "changed"
	session.Messages = append(session.Messages, domain.ChatMessage{Role: domain.RoleAssistant})

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Требования к заземлению", got.Messages[0].Content)

	got.Messages[0].Content = "mutated"
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Требования к заземлению", again.Messages[0].Content)
}

func TestChatStore_Save_Invalid(t *testing.T) {
	store := NewChatStore()

	assert.ErrorIs(t, store.Save(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(context.Background(), &domain.ChatSession{}), domain.ErrInvalidInput)
}

func TestChatStore_Get_NotFound(t *testing.T) {
	_, err := NewChatStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatStore_List_Order(t *testing.T) {
	store := NewChatStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, newSession("old", base)))
	require.NoError(t, store.Save(ctx, newSession("new", base.Add(time.Hour))))
	require.NoError(t, store.Save(ctx, newSession("b-tie", base)))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "b-tie", sessions[1].ID)
	assert.Equal(t, "old", sessions[2].ID)
	assert.Nil(t, sessions[0].Messages)
}

func TestChatStore_DeleteClearsCurrent(t *testing.T) {
	store := NewChatStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newSession("s1", time.Now())))
	require.NoError(t, store.SetCurrent(ctx, "s1"))

	require.NoError(t, store.Delete(ctx, "s1"))

	current, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)
	assert.ErrorIs(t, store.Delete(ctx, "s1"), domain.ErrNotFound)
}

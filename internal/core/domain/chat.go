package domain

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single turn in a session.
type ChatMessage struct {
	Role    Role
	Content string

	// Mode is the response mode the turn was handled in.
	Mode Mode

	// IsError marks assistant replies that carry an error message.
	IsError bool

	CreatedAt time.Time
}

// ChatSession is a conversation with its recorded turns.
type ChatSession struct {
	ID        string
	Title     string
	Messages  []ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultSessionTitle is used until the first user message arrives.
const DefaultSessionTitle = "Новый чат"

const (
	titleMaxRunes = 50
	titleKeep     = 47
)

// SessionTitle derives a session title from the first user message.
// Messages longer than 50 characters keep their first 47 followed by "...".
func SessionTitle(firstMessage string) string {
	r := []rune(firstMessage)
	if len(r) > titleMaxRunes {
		return string(r[:titleKeep]) + "..."
	}
	return firstMessage
}

// Source names a document that contributed context to a reply.
type Source struct {
	Filename string
	Sections []string
}

// ChatReply is the outcome of one chat turn. A timed-out turn carries the
// mode's localized timeout message in Content; callers detect the timeout
// through TimedOut, the counterpart of ErrTimedOut, not the message text.
type ChatReply struct {
	SessionID string
	Mode      Mode
	Content   string

	// IsError is true when Content is a user-facing error message.
	IsError bool

	// TimedOut is true when generation exceeded its deadline. It is the
	// timeout sentinel of a reply; IsError is set as well.
	TimedOut bool

	Sources []Source
}

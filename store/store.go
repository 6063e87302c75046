package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound marks lookup misses. Callers distinguish it from storage
// failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Bundle holds all stores backing the conversation engine.
type Bundle struct {
	Conversations ConversationStore
	Messages      MessageStore
	Tasks         TaskStore
	closer        func() error
}

// Close cleans up the bundle resources
func (b *Bundle) Close() error {
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// Conversation is a user's chat thread. The owner never changes and the
// record is never deleted by the engine.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one entry in a conversation. Messages are append-only; once
// written they are never mutated. ToolInvocations carries the serialized
// invocation list for assistant messages, nil otherwise.
type Message struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversationId"`
	Role            string    `json:"role"`
	Content         string    `json:"content"`
	ToolInvocations *string   `json:"toolInvocations,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Task is a user's todo item. UpdatedAt reflects the most recent mutation and
// is the only concurrency signal (last writer wins).
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ConversationStore tracks conversations by owner.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID string) (Conversation, error)
	GetConversation(ctx context.Context, id string) (Conversation, error)
}

// MessageStore tracks the append-only message log of each conversation.
type MessageStore interface {
	// ListMessages returns the complete message sequence for a conversation,
	// ordered by creation time with ties broken by insertion order.
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)

	// AppendTurn writes the user message, the assistant message, and the
	// conversation's updated_at as one atomic unit. Either all three writes
	// become visible or none do. Returns ErrNotFound for an unknown
	// conversation.
	AppendTurn(ctx context.Context, conversationID, userContent, assistantContent string, toolInvocations *string) (userMsg Message, assistantMsg Message, err error)
}

// TaskStore manages a user's tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, userID, title, description string, dueAt *time.Time) (Task, error)
	ListTasks(ctx context.Context, userID string) ([]Task, error)
	GetTask(ctx context.Context, userID, id string) (Task, error)
	UpdateTask(ctx context.Context, task Task) (Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

func generateID() string {
	return uuid.New().String()
}

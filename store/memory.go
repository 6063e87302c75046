package store

import (
	"context"
	"sync"
	"time"
)

// NewMemoryBundle creates an in-memory Bundle. Used for tests and as the
// zero-config default; everything is lost on process exit.
func NewMemoryBundle() *Bundle {
	state := &memoryState{
		conversations: map[string]Conversation{},
		messages:      map[string][]Message{},
		tasks:         map[string][]Task{},
	}
	return &Bundle{
		Conversations: &MemoryConversationStore{state: state},
		Messages:      &MemoryMessageStore{state: state},
		Tasks:         &MemoryTaskStore{state: state},
	}
}

// memoryState is shared by the three stores so AppendTurn can touch the
// conversation record under the same lock as the message writes.
type memoryState struct {
	mu            sync.Mutex
	conversations map[string]Conversation
	messages      map[string][]Message // insertion order per conversation
	tasks         map[string][]Task    // insertion order per user
}

// =============================================================================
// MemoryConversationStore
// =============================================================================

type MemoryConversationStore struct {
	state *memoryState
}

func (s *MemoryConversationStore) CreateConversation(ctx context.Context, userID string) (Conversation, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	conv := Conversation{
		ID:        generateID(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	conv.UpdatedAt = conv.CreatedAt
	s.state.conversations[conv.ID] = conv
	return conv, nil
}

func (s *MemoryConversationStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	conv, ok := s.state.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

// =============================================================================
// MemoryMessageStore
// =============================================================================

type MemoryMessageStore struct {
	state *memoryState
}

func (s *MemoryMessageStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	msgs := s.state.messages[conversationID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryMessageStore) AppendTurn(ctx context.Context, conversationID, userContent, assistantContent string, toolInvocations *string) (Message, Message, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	conv, ok := s.state.conversations[conversationID]
	if !ok {
		return Message{}, Message{}, ErrNotFound
	}

	now := time.Now().UTC()
	userMsg := Message{
		ID:             generateID(),
		ConversationID: conversationID,
		Role:           "user",
		Content:        userContent,
		CreatedAt:      now,
	}
	assistantMsg := Message{
		ID:              generateID(),
		ConversationID:  conversationID,
		Role:            "assistant",
		Content:         assistantContent,
		ToolInvocations: toolInvocations,
		CreatedAt:       now,
	}

	s.state.messages[conversationID] = append(s.state.messages[conversationID], userMsg, assistantMsg)
	conv.UpdatedAt = now
	s.state.conversations[conversationID] = conv
	return userMsg, assistantMsg, nil
}

// =============================================================================
// MemoryTaskStore
// =============================================================================

type MemoryTaskStore struct {
	state *memoryState
}

func (s *MemoryTaskStore) CreateTask(ctx context.Context, userID, title, description string, dueAt *time.Time) (Task, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	now := time.Now().UTC()
	task := Task{
		ID:          generateID(),
		UserID:      userID,
		Title:       title,
		Description: description,
		DueAt:       dueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.state.tasks[userID] = append(s.state.tasks[userID], task)
	return task, nil
}

func (s *MemoryTaskStore) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	tasks := s.state.tasks[userID]
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out, nil
}

func (s *MemoryTaskStore) GetTask(ctx context.Context, userID, id string) (Task, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, t := range s.state.tasks[userID] {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, ErrNotFound
}

func (s *MemoryTaskStore) UpdateTask(ctx context.Context, task Task) (Task, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	tasks := s.state.tasks[task.UserID]
	for i, t := range tasks {
		if t.ID == task.ID {
			task.CreatedAt = t.CreatedAt
			task.UpdatedAt = time.Now().UTC()
			tasks[i] = task
			return task, nil
		}
	}
	return Task{}, ErrNotFound
}

func (s *MemoryTaskStore) DeleteTask(ctx context.Context, userID, id string) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	tasks := s.state.tasks[userID]
	for i, t := range tasks {
		if t.ID == id {
			s.state.tasks[userID] = append(tasks[:i], tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

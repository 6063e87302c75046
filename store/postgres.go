package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL,
    conversation_id TEXT NOT NULL REFERENCES conversations(id),
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    tool_invocations TEXT,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at, seq);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    due_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at, seq);
`

// NewPostgresBundle creates a Bundle backed by Postgres. This is the backend
// for running multiple engine instances against one shared store.
func NewPostgresBundle(ctx context.Context, dsn string) (*Bundle, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Bundle{
		Conversations: &PostgresConversationStore{pool: pool},
		Messages:      &PostgresMessageStore{pool: pool},
		Tasks:         &PostgresTaskStore{pool: pool},
		closer: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

// =============================================================================
// PostgresConversationStore
// =============================================================================

type PostgresConversationStore struct {
	pool *pgxpool.Pool
}

func (s *PostgresConversationStore) CreateConversation(ctx context.Context, userID string) (Conversation, error) {
	conv := Conversation{
		ID:        generateID(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	conv.UpdatedAt = conv.CreatedAt

	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversations (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		conv.ID, conv.UserID, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *PostgresConversationStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var conv Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM conversations WHERE id = $1`,
		id,
	).Scan(&conv.ID, &conv.UserID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// =============================================================================
// PostgresMessageStore
// =============================================================================

type PostgresMessageStore struct {
	pool *pgxpool.Pool
}

func (s *PostgresMessageStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, tool_invocations, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at, seq`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var invocations *string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &invocations, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ToolInvocations = invocations
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *PostgresMessageStore) AppendTurn(ctx context.Context, conversationID, userContent, assistantContent string, toolInvocations *string) (Message, Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Message{}, Message{}, err
	}
	defer tx.Rollback(ctx)

	var one int
	err = tx.QueryRow(ctx, `SELECT 1 FROM conversations WHERE id = $1`, conversationID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, Message{}, err
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

	if _, err := tx.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, tool_invocations, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		userMsg.ID, userMsg.ConversationID, userMsg.Role, userMsg.Content, nil, userMsg.CreatedAt,
	); err != nil {
		return Message{}, Message{}, fmt.Errorf("append user message: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, tool_invocations, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		assistantMsg.ID, assistantMsg.ConversationID, assistantMsg.Role, assistantMsg.Content, toolInvocations, assistantMsg.CreatedAt,
	); err != nil {
		return Message{}, Message{}, fmt.Errorf("append assistant message: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET updated_at = $1 WHERE id = $2`,
		now, conversationID,
	); err != nil {
		return Message{}, Message{}, fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, Message{}, fmt.Errorf("commit turn: %w", err)
	}
	return userMsg, assistantMsg, nil
}

// =============================================================================
// PostgresTaskStore
// =============================================================================

type PostgresTaskStore struct {
	pool *pgxpool.Pool
}

func (s *PostgresTaskStore) CreateTask(ctx context.Context, userID, title, description string, dueAt *time.Time) (Task, error) {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, user_id, title, description, completed, due_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5, $6, $7)`,
		task.ID, task.UserID, task.Title, task.Description, task.DueAt, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *PostgresTaskStore) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title, description, completed, due_at, created_at, updated_at
		 FROM tasks WHERE user_id = $1 ORDER BY created_at, seq`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var description *string
		var dueAt *time.Time
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Completed, &dueAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if description != nil {
			t.Description = *description
		}
		t.DueAt = dueAt
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *PostgresTaskStore) GetTask(ctx context.Context, userID, id string) (Task, error) {
	var t Task
	var description *string
	var dueAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, description, completed, due_at, created_at, updated_at
		 FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Completed, &dueAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, err
	}
	if description != nil {
		t.Description = *description
	}
	t.DueAt = dueAt
	return t, nil
}

func (s *PostgresTaskStore) UpdateTask(ctx context.Context, task Task) (Task, error) {
	task.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, completed = $3, due_at = $4, updated_at = $5
		 WHERE id = $6 AND user_id = $7`,
		task.Title, task.Description, task.Completed, task.DueAt, task.UpdatedAt, task.ID, task.UserID,
	)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (s *PostgresTaskStore) DeleteTask(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

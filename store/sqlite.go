package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL REFERENCES conversations(id),
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    tool_invocations TEXT,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    completed INTEGER NOT NULL DEFAULT 0,
    due_at DATETIME,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at);
`

// NewSQLiteBundle creates a Bundle backed by SQLite at the given path
func NewSQLiteBundle(dbPath string) (*Bundle, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Bundle{
		Conversations: &SQLiteConversationStore{db: db},
		Messages:      &SQLiteMessageStore{db: db},
		Tasks:         &SQLiteTaskStore{db: db},
		closer:        db.Close,
	}, nil
}

// =============================================================================
// SQLiteConversationStore
// =============================================================================

type SQLiteConversationStore struct {
	db *sql.DB
}

func (s *SQLiteConversationStore) CreateConversation(ctx context.Context, userID string) (Conversation, error) {
	conv := Conversation{
		ID:        generateID(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	conv.UpdatedAt = conv.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *SQLiteConversationStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var conv Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM conversations WHERE id = ?`,
		id,
	).Scan(&conv.ID, &conv.UserID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// =============================================================================
// SQLiteMessageStore
// =============================================================================

type SQLiteMessageStore struct {
	db *sql.DB
}

func (s *SQLiteMessageStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	// rowid breaks creation-time ties in insertion order
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, tool_invocations, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at, rowid`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var invocations sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &invocations, &m.CreatedAt); err != nil {
			return nil, err
		}
		if invocations.Valid {
			m.ToolInvocations = &invocations.String
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteMessageStore) AppendTurn(ctx context.Context, conversationID, userContent, assistantContent string, toolInvocations *string) (Message, Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, Message{}, err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE id = ?`, conversationID).Scan(&one)
	if err == sql.ErrNoRows {
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

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, tool_invocations, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userMsg.ID, userMsg.ConversationID, userMsg.Role, userMsg.Content, nil, userMsg.CreatedAt,
	); err != nil {
		return Message{}, Message{}, fmt.Errorf("append user message: %w", err)
	}

	var invocations any
	if toolInvocations != nil {
		invocations = *toolInvocations
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, tool_invocations, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		assistantMsg.ID, assistantMsg.ConversationID, assistantMsg.Role, assistantMsg.Content, invocations, assistantMsg.CreatedAt,
	); err != nil {
		return Message{}, Message{}, fmt.Errorf("append assistant message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now, conversationID,
	); err != nil {
		return Message{}, Message{}, fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Message{}, Message{}, fmt.Errorf("commit turn: %w", err)
	}
	return userMsg, assistantMsg, nil
}

// =============================================================================
// SQLiteTaskStore
// =============================================================================

type SQLiteTaskStore struct {
	db *sql.DB
}

func (s *SQLiteTaskStore) CreateTask(ctx context.Context, userID, title, description string, dueAt *time.Time) (Task, error) {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, completed, due_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		task.ID, task.UserID, task.Title, task.Description, task.DueAt, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *SQLiteTaskStore) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, completed, due_at, created_at, updated_at
		 FROM tasks WHERE user_id = ? ORDER BY created_at, rowid`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *SQLiteTaskStore) GetTask(ctx context.Context, userID, id string) (Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, completed, due_at, created_at, updated_at
		 FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, err
	}
	return task, nil
}

func (s *SQLiteTaskStore) UpdateTask(ctx context.Context, task Task) (Task, error) {
	task.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, completed = ?, due_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.Title, task.Description, task.Completed, task.DueAt, task.UpdatedAt, task.ID, task.UserID,
	)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (s *SQLiteTaskStore) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	var description sql.NullString
	var dueAt sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Completed, &dueAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, err
	}
	if description.Valid {
		t.Description = description.String
	}
	if dueAt.Valid {
		t.DueAt = &dueAt.Time
	}
	return t, nil
}

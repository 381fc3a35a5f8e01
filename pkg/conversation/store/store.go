// Package store реализует персистентность диалогов в SQLite.
//
// Каждый диалог хранится одной строкой: системный промпт отдельной
// колонкой, история — JSON блобом. Схема создаётся автоматически
// при открытии базы.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/roy-ai/pkg/conversation"
	"github.com/ilkoid/roy-ai/pkg/llm"
	"github.com/ilkoid/roy-ai/pkg/utils"
)

// Store — SQLite хранилище диалогов.
type Store struct {
	db *sql.DB
}

// Info — метаданные сохранённого диалога (для списков).
type Info struct {
	ID        string
	Messages  int
	UpdatedAt time.Time
}

// messageRecord — wire-формат сообщения в JSON блобе.
type messageRecord struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	Images     []string       `json:"images,omitempty"`
	ToolCalls  []toolCallRec  `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type toolCallRec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"`
}

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	system_prompt TEXT NOT NULL DEFAULT '',
	messages      TEXT NOT NULL DEFAULT '[]',
	message_count INTEGER NOT NULL DEFAULT 0,
	updated_at    TIMESTAMP NOT NULL
);
`

// Open открывает (или создает) базу по указанному пути
// и применяет схему.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db at %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	utils.Info("Conversation store opened", "path", path)
	return &Store{db: db}, nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save сохраняет диалог под указанным идентификатором (upsert).
func (s *Store) Save(ctx context.Context, id string, conv *conversation.Conversation) error {
	if id == "" {
		return fmt.Errorf("conversation id is required")
	}

	history := conv.History()
	records := make([]messageRecord, len(history))
	for i, m := range history {
		records[i] = toRecord(m)
	}

	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, system_prompt, messages, message_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			system_prompt = excluded.system_prompt,
			messages      = excluded.messages,
			message_count = excluded.message_count,
			updated_at    = excluded.updated_at`,
		id, conv.SystemPrompt(), string(blob), len(records), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save conversation '%s': %w", id, err)
	}

	utils.Debug("Conversation saved", "id", id, "messages", len(records))
	return nil
}

// Load восстанавливает диалог по идентификатору.
// Возвращает sql.ErrNoRows если диалог не найден.
func (s *Store) Load(ctx context.Context, id string) (*conversation.Conversation, error) {
	var systemPrompt, blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT system_prompt, messages FROM conversations WHERE id = ?`, id).
		Scan(&systemPrompt, &blob)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation '%s': %w", id, err)
	}

	var records []messageRecord
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		return nil, fmt.Errorf("corrupted messages blob for '%s': %w", id, err)
	}

	conv := conversation.NewWithSystem(systemPrompt)
	for _, r := range records {
		conv.AddMessage(fromRecord(r))
	}
	return conv, nil
}

// List возвращает метаданные всех диалогов, свежие первыми.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_count, updated_at FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var result []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.Messages, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		result = append(result, info)
	}
	return result, rows.Err()
}

// Delete удаляет диалог. Отсутствие записи не считается ошибкой.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation '%s': %w", id, err)
	}
	return nil
}

func toRecord(m llm.Message) messageRecord {
	r := messageRecord{
		Role:       string(m.Role),
		Content:    m.Content,
		Images:     m.Images,
		ToolCallID: m.ToolCallID,
		Name:       m.Name,
	}
	for _, tc := range m.ToolCalls {
		r.ToolCalls = append(r.ToolCalls, toolCallRec{ID: tc.ID, Name: tc.Name, Args: tc.Args})
	}
	return r
}

func fromRecord(r messageRecord) llm.Message {
	m := llm.Message{
		Role:       llm.Role(r.Role),
		Content:    r.Content,
		Images:     r.Images,
		ToolCallID: r.ToolCallID,
		Name:       r.Name,
	}
	for _, tc := range r.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, llm.ToolCall{ID: tc.ID, Name: tc.Name, Args: tc.Args})
	}
	return m
}

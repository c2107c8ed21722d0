package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"evoforge/backend/pkg/models"
)

// PostgresChatStore is a PostgreSQL implementation of the ChatStore interface.
type PostgresChatStore struct {
	db *pgxpool.Pool
}

// NewPostgresChatStore creates a new PostgresChatStore.
func NewPostgresChatStore(db *pgxpool.Pool) *PostgresChatStore {
	return &PostgresChatStore{db: db}
}

// Append stores a chat message. The message ID and timestamp are filled in
// when unset.
func (s *PostgresChatStore) Append(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(msg.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO chat_messages
		(id, notebook_id, message, sender, message_type, iteration_context, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.ID, msg.NotebookID, msg.Message, msg.Sender, msg.MessageType, msg.IterationContext, meta, msg.CreatedAt,
	)
	return err
}

// History returns messages for a notebook, most recent first.
func (s *PostgresChatStore) History(ctx context.Context, notebookID string, limit, offset int) ([]*models.ChatMessage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, notebook_id, message, sender, message_type, iteration_context, metadata, created_at
		FROM chat_messages
		WHERE notebook_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		notebookID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var meta []byte
		if err := rows.Scan(&m.ID, &m.NotebookID, &m.Message, &m.Sender, &m.MessageType, &m.IterationContext, &meta, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &m.Metadata); err != nil {
				return nil, err
			}
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

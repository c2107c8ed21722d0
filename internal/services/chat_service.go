package services

import (
	"context"
	"fmt"
	"strings"

	"evoforge/backend/internal/repository"
	"evoforge/backend/pkg/models"
)

// ChatService manages a notebook's conversation log.
type ChatService struct {
	store repository.ChatStore
}

// NewChatService creates a new ChatService.
func NewChatService(store repository.ChatStore) *ChatService {
	return &ChatService{store: store}
}

// AddMessage appends a chat message to the notebook's log.
func (s *ChatService) AddMessage(ctx context.Context, notebookID, message, sender, messageType string, metadata map[string]interface{}) (*models.ChatMessage, error) {
	if messageType == "" {
		messageType = "user_input"
	}
	msg := &models.ChatMessage{
		NotebookID:  notebookID,
		Message:     message,
		Sender:      sender,
		MessageType: messageType,
		Metadata:    metadata,
	}
	if err := s.store.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns messages for a notebook, most recent first.
func (s *ChatService) History(ctx context.Context, notebookID string, limit, offset int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.History(ctx, notebookID, limit, offset)
}

// RecentContext formats the last maxMessages messages as chronological
// "sender: message" lines for prompt building.
func (s *ChatService) RecentContext(ctx context.Context, notebookID string, maxMessages int) (string, error) {
	if maxMessages <= 0 {
		maxMessages = 10
	}
	messages, err := s.store.History(ctx, notebookID, maxMessages, 0)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "No previous conversation.", nil
	}

	lines := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		lines = append(lines, fmt.Sprintf("%s: %s", messages[i].Sender, messages[i].Message))
	}
	return strings.Join(lines, "\n"), nil
}

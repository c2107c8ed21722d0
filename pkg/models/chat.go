package models

import (
	"time"
)

// ChatMessage is one entry in a notebook's append-only conversation log.
type ChatMessage struct {
	ID               string                 `json:"id"`
	NotebookID       string                 `json:"notebook_id"`
	Message          string                 `json:"message"`
	Sender           string                 `json:"sender"` // "user" or an agent id
	MessageType      string                 `json:"message_type"`
	IterationContext *int                   `json:"iteration_context,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

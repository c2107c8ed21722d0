package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"evoforge/backend/internal/logging"
)

// CompletionRequest is one text-completion call to the generation backend.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
}

// Generator is the text-completion backend every agent calls. Retry policy
// lives behind this interface; callers never retry themselves.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// GenerationError indicates the generation backend exhausted its retries or
// returned an unusable response.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GroqClient talks to Groq's OpenAI-compatible chat completion API.
type GroqClient struct {
	client     *openai.Client
	model      string
	maxRetries int
	baseDelay  time.Duration
	logger     *logging.Logger
}

// NewGroqClient creates a client for the given OpenAI-compatible endpoint.
func NewGroqClient(apiKey, model, baseURL string, maxRetries int, logger *logging.Logger) *GroqClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &GroqClient{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		logger:     logger,
	}
}

// Complete sends the prompt and returns the completion text. Failed attempts
// are retried with exponential backoff before giving up with a
// GenerationError.
func (c *GroqClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		c.logger.Debug("completion request", "model", c.model, "attempt", attempt+1)

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   req.MaxTokens,
			Temperature: 0.1,
			TopP:        0.9,
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				err = fmt.Errorf("no choices in response")
			} else {
				content := strings.TrimSpace(resp.Choices[0].Message.Content)
				c.logger.Debug("completion received", "chars", len(content))
				return content, nil
			}
		}

		lastErr = err
		c.logger.Warn("completion attempt failed", "attempt", attempt+1, "error", err)

		if attempt < c.maxRetries-1 {
			delay := c.baseDelay * (1 << attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", &GenerationError{Reason: "cancelled", Err: ctx.Err()}
			}
		}
	}

	c.logger.Error("completion failed after retries", "retries", c.maxRetries, "error", lastErr)
	return "", &GenerationError{
		Reason: fmt.Sprintf("exhausted %d attempts", c.maxRetries),
		Err:    lastErr,
	}
}

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"evoforge/backend/internal/services"
)

type chatMessageRequest struct {
	Message string `json:"message"`
}

// SendChatMessage stores a user message, asks the generation backend for a
// reply built from recent conversation, and stores the reply. The user
// message survives even when the reply fails.
// (POST /api/v1/chat/:notebook_id/messages)
func (h *Handler) SendChatMessage(c echo.Context) error {
	notebookID, pc, errResp := h.problemContext(c)
	if pc == nil {
		return errResp
	}

	var req chatMessageRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Message == "" {
		return errorResponse(c, http.StatusBadRequest, "Message content required")
	}

	ctx := c.Request().Context()
	userMsg, err := h.chat.AddMessage(ctx, notebookID, req.Message, "user", "user_input", nil)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to store message: "+err.Error())
	}

	recent, err := h.chat.RecentContext(ctx, notebookID, 10)
	if err != nil {
		recent = "No previous conversation."
	}

	reply, err := h.gen.Complete(ctx, services.CompletionRequest{
		Prompt:       fmt.Sprintf("User message: %s\n\nRecent conversation:\n%s", req.Message, recent),
		SystemPrompt: "You are an AI assistant helping with evolutionary algorithm development. Provide helpful, concise responses.",
		MaxTokens:    1000,
	})
	if err != nil {
		return successResponse(c, http.StatusOK, map[string]interface{}{
			"user_message": userMsg,
			"ai_response":  nil,
			"ai_error":     err.Error(),
		}, "Message saved, but AI response failed")
	}

	aiMsg, err := h.chat.AddMessage(ctx, notebookID, reply, "assistant", "ai_response", nil)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to store AI response: "+err.Error())
	}

	return successResponse(c, http.StatusOK, map[string]interface{}{
		"user_message": userMsg,
		"ai_response":  aiMsg,
	}, "Message sent and response generated")
}

// ChatHistory returns the notebook's chat log, most recent first.
// (GET /api/v1/chat/:notebook_id/history)
func (h *Handler) ChatHistory(c echo.Context) error {
	notebookID, pc, errResp := h.problemContext(c)
	if pc == nil {
		return errResp
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size < 1 || size > 100 {
		size = 20
	}

	messages, err := h.chat.History(c.Request().Context(), notebookID, size, (page-1)*size)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to get chat history: "+err.Error())
	}

	return successResponse(c, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"page":     page,
		"size":     size,
		"total":    len(messages),
	}, "Chat history retrieved")
}

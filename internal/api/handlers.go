// Package api contains the HTTP handlers for the code generation service
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"evoforge/backend/internal/coordinator"
	"evoforge/backend/internal/logging"
	"evoforge/backend/internal/repository"
	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// Handler holds the dependencies for the REST API. A fresh Coordinator is
// built per coordination request so agent run state stays request-scoped.
type Handler struct {
	notebooks repository.NotebookStore
	cells     *services.CellService
	chat      *services.ChatService
	gen       services.Generator
	logger    *logging.Logger
}

// NewHandler creates a new Handler with required dependencies.
func NewHandler(notebooks repository.NotebookStore, cells *services.CellService, chat *services.ChatService, gen services.Generator, logger *logging.Logger) *Handler {
	return &Handler{
		notebooks: notebooks,
		cells:     cells,
		chat:      chat,
		gen:       gen,
		logger:    logger,
	}
}

// RegisterHandlers mounts the API routes on the given group.
func RegisterHandlers(g *echo.Group, h *Handler) {
	g.POST("/problems", h.CreateProblem)
	g.POST("/notebooks", h.CreateNotebook)

	g.POST("/agents/:notebook_id/coordinate", h.CoordinateAgents)
	g.GET("/agents/:notebook_id/status", h.AgentStatus)
	g.GET("/agents/:notebook_id/cells", h.NotebookCells)
	g.GET("/agents/:notebook_id/complete-code", h.CompleteCode)
	g.POST("/agents/:notebook_id/regenerate/:cell_type", h.RegenerateCell)

	g.POST("/chat/:notebook_id/messages", h.SendChatMessage)
	g.GET("/chat/:notebook_id/history", h.ChatHistory)
}

func (h *Handler) newCoordinator() *coordinator.Coordinator {
	return coordinator.New(h.cells, h.gen, h.logger)
}

// envelope is the standard response shape shared by all endpoints.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func successResponse(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func errorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

// HealthStatus is served unauthenticated at /health.
func HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Service:   "evoforge",
		Version:   "1.0.0",
	})
}

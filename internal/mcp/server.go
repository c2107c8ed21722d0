// Package mcp exposes the generation pipeline as MCP tools so agentic
// clients can drive notebooks over the same services as the REST API.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"evoforge/backend/internal/coordinator"
	"evoforge/backend/internal/logging"
	"evoforge/backend/internal/repository"
	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// Server wraps an MCP server around the notebook pipeline.
type Server struct {
	mcpServer *server.MCPServer
	notebooks repository.NotebookStore
	cells     *services.CellService
	gen       services.Generator
	logger    *logging.Logger
	userID    string
}

// NewServer creates the MCP server. Tool calls run as the given service
// user, which must own the notebooks it touches.
func NewServer(notebooks repository.NotebookStore, cells *services.CellService, gen services.Generator, logger *logging.Logger, userID string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"EvoForge Notebooks",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		notebooks: notebooks,
		cells:     cells,
		gen:       gen,
		logger:    logger,
		userID:    userID,
	}

	s.registerTools()
	return s
}

// GetMCPServer exposes the underlying MCP server for mounting.
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"coordinate_agents",
			mcp.WithDescription("Run the full seven-stage generation pipeline for a notebook"),
			mcp.WithString("notebook_id", mcp.Required(), mcp.Description("The notebook to generate code for")),
		),
		s.handleCoordinate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_complete_code",
			mcp.WithDescription("Get the concatenated program built from a notebook's active cells"),
			mcp.WithString("notebook_id", mcp.Required(), mcp.Description("The notebook to read")),
		),
		s.handleCompleteCode,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"regenerate_cell",
			mcp.WithDescription("Regenerate a single cell type, seeded with the other cells' current code"),
			mcp.WithString("notebook_id", mcp.Required(), mcp.Description("The notebook owning the cell")),
			mcp.WithString("cell_type", mcp.Required(), mcp.Description("One of the seven cell types")),
		),
		s.handleRegenerate,
	)
}

func (s *Server) stringArg(request mcp.CallToolRequest, name string) (string, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", mcp.NewToolResultError("Invalid arguments type")
	}
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", mcp.NewToolResultError("Missing required parameter: " + name)
	}
	return value, nil
}

func (s *Server) problemContext(ctx context.Context, notebookID string) (*models.ProblemContext, *mcp.CallToolResult) {
	pc, err := s.notebooks.GetProblemContext(ctx, notebookID, s.userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, mcp.NewToolResultError("Notebook not found: " + notebookID)
	}
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to load notebook: %v", err))
	}
	return pc, nil
}

func (s *Server) handleCoordinate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebookID, errResult := s.stringArg(request, "notebook_id")
	if errResult != nil {
		return errResult, nil
	}
	pc, errResult := s.problemContext(ctx, notebookID)
	if errResult != nil {
		return errResult, nil
	}

	coord := coordinator.New(s.cells, s.gen, s.logger)
	result := coord.Coordinate(ctx, notebookID, pc)

	jsonBytes, _ := json.Marshal(result)
	if !result.Success {
		return mcp.NewToolResultError(string(jsonBytes)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCompleteCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebookID, errResult := s.stringArg(request, "notebook_id")
	if errResult != nil {
		return errResult, nil
	}
	if _, errResult := s.problemContext(ctx, notebookID); errResult != nil {
		return errResult, nil
	}

	code, err := s.cells.CompleteCode(ctx, notebookID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get complete code: %v", err)), nil
	}
	return mcp.NewToolResultText(code), nil
}

func (s *Server) handleRegenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebookID, errResult := s.stringArg(request, "notebook_id")
	if errResult != nil {
		return errResult, nil
	}
	cellTypeArg, errResult := s.stringArg(request, "cell_type")
	if errResult != nil {
		return errResult, nil
	}
	cellType := models.CellType(cellTypeArg)
	if !cellType.Valid() {
		return mcp.NewToolResultError("Invalid cell type: " + cellTypeArg), nil
	}
	pc, errResult := s.problemContext(ctx, notebookID)
	if errResult != nil {
		return errResult, nil
	}

	coord := coordinator.New(s.cells, s.gen, s.logger)
	result, err := coord.RegenerateCell(ctx, notebookID, cellType, pc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to regenerate cell: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers mounts the MCP SSE endpoints on the given mux.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}

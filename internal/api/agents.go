package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"evoforge/backend/internal/auth"
	"evoforge/backend/internal/repository"
	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// problemContext resolves the notebook's problem for the authenticated user,
// translating missing ownership into a 404.
func (h *Handler) problemContext(c echo.Context) (string, *models.ProblemContext, error) {
	notebookID := c.Param("notebook_id")
	pc, err := h.notebooks.GetProblemContext(c.Request().Context(), notebookID, auth.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, errorResponse(c, http.StatusNotFound, "Notebook not found")
	}
	if err != nil {
		return "", nil, errorResponse(c, http.StatusInternalServerError, "Failed to load notebook: "+err.Error())
	}
	return notebookID, pc, nil
}

// CoordinateAgents runs the full seven-stage pipeline for a notebook.
// (POST /api/v1/agents/:notebook_id/coordinate)
func (h *Handler) CoordinateAgents(c echo.Context) error {
	notebookID, pc, errResp := h.problemContext(c)
	if pc == nil {
		return errResp
	}

	result := h.newCoordinator().Coordinate(c.Request().Context(), notebookID, pc)
	if !result.Success {
		return c.JSON(http.StatusInternalServerError, envelope{
			Success: false,
			Message: result.Message,
			Data:    result,
		})
	}
	return successResponse(c, http.StatusOK, result, "Agent coordination completed successfully")
}

// AgentStatus reports each agent's state plus the notebook's cells.
// (GET /api/v1/agents/:notebook_id/status)
func (h *Handler) AgentStatus(c echo.Context) error {
	notebookID, pc, errResp := h.problemContext(c)
	if pc == nil {
		return errResp
	}

	cells, err := h.cells.NotebookCells(c.Request().Context(), notebookID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to get cells: "+err.Error())
	}

	return successResponse(c, http.StatusOK, map[string]interface{}{
		"notebook_id":  notebookID,
		"agent_status": h.newCoordinator().AgentStatus(),
		"cells":        cells,
		"total_cells":  len(cells),
	}, "Agent status retrieved successfully")
}

// NotebookCells lists the notebook's active cells in display order.
// (GET /api/v1/agents/:notebook_id/cells)
func (h *Handler) NotebookCells(c echo.Context) error {
	notebookID, pc, errResp := h.problemContext(c)
	if pc == nil {
		return errResp
	}

	cells, err := h.cells.NotebookCells(c.Request().Context(), notebookID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to get notebook cells: "+err.Error())
	}

	return successResponse(c, http.StatusOK, map[string]interface{}{
		"notebook_id": notebookID,
		"cells":       cells,
		"total_cells": len(cells),
	}, "Notebook cells retrieved successfully")
}

// CompleteCode returns the concatenated program view of all active cells.
// (GET /api/v1/agents/:notebook_id/complete-code)
func (h *Handler) CompleteCode(c echo.Context) error {
	notebookID, pc, errResp := h.problemContext(c)
	if pc == nil {
		return errResp
	}

	code, err := h.cells.CompleteCode(c.Request().Context(), notebookID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to get complete code: "+err.Error())
	}

	return successResponse(c, http.StatusOK, map[string]interface{}{
		"notebook_id":   notebookID,
		"complete_code": code,
		"code_length":   len(code),
	}, "Complete code retrieved successfully")
}

// RegenerateCell re-runs the one agent producing the given cell type.
// (POST /api/v1/agents/:notebook_id/regenerate/:cell_type)
func (h *Handler) RegenerateCell(c echo.Context) error {
	cellType := models.CellType(c.Param("cell_type"))
	if !cellType.Valid() {
		return errorResponse(c, http.StatusBadRequest, "Invalid cell type: "+string(cellType))
	}

	notebookID, pc, errResp := h.problemContext(c)
	if pc == nil {
		return errResp
	}

	result, err := h.newCoordinator().RegenerateCell(c.Request().Context(), notebookID, cellType, pc)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCellType) {
			return errorResponse(c, http.StatusBadRequest, err.Error())
		}
		return errorResponse(c, http.StatusInternalServerError, "Failed to regenerate cell: "+err.Error())
	}

	return successResponse(c, http.StatusOK, map[string]interface{}{
		"notebook_id":    notebookID,
		"cell_type":      result.CellType,
		"cell_id":        result.CellID,
		"action":         result.Action,
		"version":        result.Version,
		"generated_code": result.Code,
	}, "Cell "+string(cellType)+" regenerated successfully")
}

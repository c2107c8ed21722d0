package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"evoforge/backend/internal/auth"
	"evoforge/backend/pkg/models"
)

type createProblemRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	ProblemType string                 `json:"problem_type"`
	Objectives  []string               `json:"objectives"`
	Constraints map[string]interface{} `json:"constraints"`
}

// CreateProblem stores a new problem statement for the authenticated user.
// (POST /api/v1/problems)
func (h *Handler) CreateProblem(c echo.Context) error {
	var req createProblemRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Title == "" || req.Description == "" {
		return errorResponse(c, http.StatusBadRequest, "Title and description required")
	}
	if req.ProblemType == "" {
		req.ProblemType = "optimization"
	}

	problem := &models.Problem{
		UserID:      auth.UserID(c),
		Title:       req.Title,
		Description: req.Description,
		ProblemType: req.ProblemType,
		Objectives:  req.Objectives,
		Constraints: req.Constraints,
	}
	if err := h.notebooks.CreateProblem(c.Request().Context(), problem); err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to create problem: "+err.Error())
	}

	return successResponse(c, http.StatusCreated, problem, "Problem created successfully")
}

type createNotebookRequest struct {
	ProblemID string `json:"problem_id"`
	Name      string `json:"name"`
}

// CreateNotebook attaches a new notebook to a problem.
// (POST /api/v1/notebooks)
func (h *Handler) CreateNotebook(c echo.Context) error {
	var req createNotebookRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.ProblemID == "" {
		return errorResponse(c, http.StatusBadRequest, "problem_id required")
	}
	if req.Name == "" {
		req.Name = "Untitled notebook"
	}

	notebook := &models.Notebook{
		ProblemID: req.ProblemID,
		Name:      req.Name,
	}
	if err := h.notebooks.CreateNotebook(c.Request().Context(), notebook); err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to create notebook: "+err.Error())
	}

	return successResponse(c, http.StatusCreated, notebook, "Notebook created successfully")
}

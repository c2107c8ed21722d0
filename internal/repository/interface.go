package repository

import (
	"context"
	"errors"

	"evoforge/backend/pkg/models"
)

// ErrNotFound is returned when a referenced row does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// CellStore persists generated cells keyed by (notebook, cell type) with
// monotonic versioning.
type CellStore interface {
	// Upsert overwrites the active cell for (notebookID, cellType),
	// bumping its version by one, or creates it at version 1.
	Upsert(ctx context.Context, notebookID string, cellType models.CellType, code, agentID string, position int) (*models.CellWriteResult, error)
	// ListActive returns the notebook's active cells ordered by position
	// then creation time.
	ListActive(ctx context.Context, notebookID string) ([]*models.Cell, error)
	// GetActiveByType returns the active cell of the given type, or
	// ErrNotFound.
	GetActiveByType(ctx context.Context, notebookID string, cellType models.CellType) (*models.Cell, error)
}

// ChatStore is an append-only log of notebook chat messages.
type ChatStore interface {
	Append(ctx context.Context, msg *models.ChatMessage) error
	History(ctx context.Context, notebookID string, limit, offset int) ([]*models.ChatMessage, error)
}

// NotebookStore manages problems and the notebooks attached to them.
type NotebookStore interface {
	CreateProblem(ctx context.Context, p *models.Problem) error
	CreateNotebook(ctx context.Context, n *models.Notebook) error
	GetNotebook(ctx context.Context, id string) (*models.Notebook, error)
	// GetProblemContext resolves a notebook to its owning problem,
	// enforcing ownership. Returns ErrNotFound when the notebook does not
	// exist or belongs to another user.
	GetProblemContext(ctx context.Context, notebookID, userID string) (*models.ProblemContext, error)
}

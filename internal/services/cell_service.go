package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"evoforge/backend/internal/repository"
	"evoforge/backend/pkg/models"
)

// ErrInvalidCellType is returned when a request names a cell type outside
// the fixed enumeration.
var ErrInvalidCellType = errors.New("invalid cell type")

// PersistenceError indicates a cell store write failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CellService manages notebook cells and their content.
type CellService struct {
	store repository.CellStore
}

// NewCellService creates a new CellService.
func NewCellService(store repository.CellStore) *CellService {
	return &CellService{store: store}
}

// UpsertCell overwrites the active cell for the type, or creates it at
// version 1. Both the full pipeline and single-cell regeneration go through
// this method so versioning behavior cannot diverge.
func (s *CellService) UpsertCell(ctx context.Context, notebookID string, cellType models.CellType, code, agentID string, position int) (*models.CellWriteResult, error) {
	if !cellType.Valid() {
		return nil, ErrInvalidCellType
	}
	res, err := s.store.Upsert(ctx, notebookID, cellType, code, agentID, position)
	if err != nil {
		return nil, &PersistenceError{Op: "upsert", Err: err}
	}
	return res, nil
}

// NotebookCells returns the notebook's active cells in display order.
func (s *CellService) NotebookCells(ctx context.Context, notebookID string) ([]*models.Cell, error) {
	return s.store.ListActive(ctx, notebookID)
}

// ActiveCell returns the active cell of the given type, or
// repository.ErrNotFound.
func (s *CellService) ActiveCell(ctx context.Context, notebookID string, cellType models.CellType) (*models.Cell, error) {
	if !cellType.Valid() {
		return nil, ErrInvalidCellType
	}
	return s.store.GetActiveByType(ctx, notebookID, cellType)
}

// CompleteCode joins all active cells in position order into one program
// listing, each block preceded by a header naming its cell type and
// producing agent.
func (s *CellService) CompleteCode(ctx context.Context, notebookID string) (string, error) {
	cells, err := s.store.ListActive(ctx, notebookID)
	if err != nil {
		return "", err
	}

	if len(cells) == 0 {
		return "# No code generated yet", nil
	}

	var b strings.Builder
	b.WriteString("# Complete DEAP Algorithm Generated by Multi-Agent System\n")
	b.WriteString("# " + strings.Repeat("=", 60) + "\n\n")

	for _, cell := range cells {
		fmt.Fprintf(&b, "# %s - Generated by %s\n", strings.ToUpper(string(cell.CellType)), cell.AgentID)
		b.WriteString("# " + strings.Repeat("-", 40) + "\n")
		b.WriteString(cell.Code)
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

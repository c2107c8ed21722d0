package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"evoforge/backend/pkg/models"
)

// PostgresCellStore is a PostgreSQL implementation of the CellStore interface.
type PostgresCellStore struct {
	db *pgxpool.Pool
}

// NewPostgresCellStore creates a new PostgresCellStore.
func NewPostgresCellStore(db *pgxpool.Pool) *PostgresCellStore {
	return &PostgresCellStore{db: db}
}

// Upsert overwrites the active cell for (notebookID, cellType) or creates it.
// The version bump happens inside the UPDATE statement so concurrent writers
// cannot lose an increment through a read-then-write race.
func (s *PostgresCellStore) Upsert(ctx context.Context, notebookID string, cellType models.CellType, code, agentID string, position int) (*models.CellWriteResult, error) {
	now := time.Now().UTC()

	var id string
	var version int
	err := s.db.QueryRow(ctx, `
		UPDATE notebook_cells
		SET code = $1, agent_id = $2, version = version + 1, updated_at = $3
		WHERE notebook_id = $4 AND cell_type = $5 AND is_active = true
		RETURNING id, version`,
		code, agentID, now, notebookID, cellType,
	).Scan(&id, &version)
	if err == nil {
		return &models.CellWriteResult{CellID: id, Version: version, Action: "updated"}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	id = uuid.New().String()
	_, err = s.db.Exec(ctx, `
		INSERT INTO notebook_cells
		(id, notebook_id, cell_type, code, agent_id, version, position, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, true, $7, $7)`,
		id, notebookID, cellType, code, agentID, position, now,
	)
	if err != nil {
		return nil, err
	}
	return &models.CellWriteResult{CellID: id, Version: 1, Action: "created"}, nil
}

// ListActive returns the notebook's active cells in display order.
func (s *PostgresCellStore) ListActive(ctx context.Context, notebookID string) ([]*models.Cell, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, notebook_id, cell_type, code, agent_id, version, position, is_active, created_at, updated_at
		FROM notebook_cells
		WHERE notebook_id = $1 AND is_active = true
		ORDER BY position, created_at`,
		notebookID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []*models.Cell
	for rows.Next() {
		var c models.Cell
		if err := rows.Scan(&c.ID, &c.NotebookID, &c.CellType, &c.Code, &c.AgentID, &c.Version, &c.Position, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		cells = append(cells, &c)
	}
	return cells, rows.Err()
}

// GetActiveByType returns the active cell of the given type.
func (s *PostgresCellStore) GetActiveByType(ctx context.Context, notebookID string, cellType models.CellType) (*models.Cell, error) {
	var c models.Cell
	err := s.db.QueryRow(ctx, `
		SELECT id, notebook_id, cell_type, code, agent_id, version, position, is_active, created_at, updated_at
		FROM notebook_cells
		WHERE notebook_id = $1 AND cell_type = $2 AND is_active = true
		ORDER BY version DESC LIMIT 1`,
		notebookID, cellType,
	).Scan(&c.ID, &c.NotebookID, &c.CellType, &c.Code, &c.AgentID, &c.Version, &c.Position, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"evoforge/backend/pkg/models"
)

// PostgresNotebookStore is a PostgreSQL implementation of the NotebookStore
// interface.
type PostgresNotebookStore struct {
	db *pgxpool.Pool
}

// NewPostgresNotebookStore creates a new PostgresNotebookStore.
func NewPostgresNotebookStore(db *pgxpool.Pool) *PostgresNotebookStore {
	return &PostgresNotebookStore{db: db}
}

// CreateProblem stores a problem statement.
func (s *PostgresNotebookStore) CreateProblem(ctx context.Context, p *models.Problem) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	objectives, err := json.Marshal(p.Objectives)
	if err != nil {
		return err
	}
	constraints, err := json.Marshal(p.Constraints)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO problem_statements
		(id, user_id, title, description, problem_type, objectives, constraints, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.Title, p.Description, p.ProblemType, objectives, constraints, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// CreateNotebook stores a notebook attached to a problem.
func (s *PostgresNotebookStore) CreateNotebook(ctx context.Context, n *models.Notebook) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := s.db.Exec(ctx, `
		INSERT INTO notebooks (id, problem_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.ProblemID, n.Name, n.CreatedAt, n.UpdatedAt,
	)
	return err
}

// GetNotebook retrieves a notebook by id.
func (s *PostgresNotebookStore) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	var n models.Notebook
	err := s.db.QueryRow(ctx, `
		SELECT id, problem_id, name, created_at, updated_at
		FROM notebooks WHERE id = $1`,
		id,
	).Scan(&n.ID, &n.ProblemID, &n.Name, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetProblemContext resolves a notebook to its owning problem statement,
// enforcing that the problem belongs to userID.
func (s *PostgresNotebookStore) GetProblemContext(ctx context.Context, notebookID, userID string) (*models.ProblemContext, error) {
	var p models.Problem
	var objectives, constraints []byte
	err := s.db.QueryRow(ctx, `
		SELECT p.title, p.description, p.problem_type, p.objectives, p.constraints
		FROM notebooks n
		JOIN problem_statements p ON n.problem_id = p.id
		WHERE n.id = $1 AND p.user_id = $2`,
		notebookID, userID,
	).Scan(&p.Title, &p.Description, &p.ProblemType, &objectives, &constraints)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(objectives) > 0 {
		if err := json.Unmarshal(objectives, &p.Objectives); err != nil {
			return nil, err
		}
	}
	if len(constraints) > 0 {
		if err := json.Unmarshal(constraints, &p.Constraints); err != nil {
			return nil, err
		}
	}
	return p.Context(), nil
}

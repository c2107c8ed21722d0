package models

import (
	"time"
)

// Problem is a user-supplied optimization problem statement.
type Problem struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	ProblemType string                 `json:"problem_type"`
	Objectives  []string               `json:"objectives"`
	Constraints map[string]interface{} `json:"constraints"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Context builds the immutable pipeline input from the problem statement.
func (p *Problem) Context() *ProblemContext {
	return &ProblemContext{
		Title:       p.Title,
		Description: p.Description,
		ProblemType: p.ProblemType,
		Objectives:  p.Objectives,
		Constraints: p.Constraints,
	}
}

// Notebook groups one problem's generated cells and chat history.
type Notebook struct {
	ID        string    `json:"id"`
	ProblemID string    `json:"problem_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

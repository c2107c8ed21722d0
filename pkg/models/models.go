// Package models defines the domain models for the code generation service
package models

import (
	"time"
)

// CellType categorizes the artifact a pipeline agent produces. Each
// notebook holds at most one active cell per type.
type CellType string

const (
	CellTypeProblemAnalysis     CellType = "problem_analysis"
	CellTypeIndividualRepr      CellType = "individual_representation"
	CellTypeFitness             CellType = "fitness"
	CellTypeCrossover           CellType = "crossover"
	CellTypeMutation            CellType = "mutation"
	CellTypeSelection           CellType = "selection"
	CellTypeToolboxRegistration CellType = "toolbox_registration"
)

// AllCellTypes lists every valid cell type in pipeline position order.
var AllCellTypes = []CellType{
	CellTypeProblemAnalysis,
	CellTypeIndividualRepr,
	CellTypeFitness,
	CellTypeCrossover,
	CellTypeMutation,
	CellTypeSelection,
	CellTypeToolboxRegistration,
}

// Valid reports whether t is one of the seven known cell types.
func (t CellType) Valid() bool {
	for _, v := range AllCellTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Cell is one persisted, versioned artifact within a notebook.
type Cell struct {
	ID         string    `json:"id"`
	NotebookID string    `json:"notebook_id"`
	CellType   CellType  `json:"cell_type"`
	Code       string    `json:"code"`
	AgentID    string    `json:"agent_id"`
	Version    int       `json:"version"`
	Position   int       `json:"position"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CellWriteResult reports the outcome of a cell upsert.
type CellWriteResult struct {
	CellID  string `json:"cell_id"`
	Version int    `json:"version"`
	Action  string `json:"action"` // "created" or "updated"
}

// ProblemContext is the immutable input to a coordination run.
type ProblemContext struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	ProblemType string                 `json:"problem_type"`
	Objectives  []string               `json:"objectives"`
	Constraints map[string]interface{} `json:"constraints"`
}

// Analysis is the structured summary the problem analyser derives for
// downstream agents.
type Analysis struct {
	ProblemType           string                 `json:"problem_type"`
	Objectives            []string               `json:"objectives"`
	Constraints           map[string]interface{} `json:"constraints"`
	IndividualStructure   string                 `json:"individual_structure"`
	OptimizationDirection string                 `json:"optimization_direction"`
}

// AgentResult records one completed pipeline stage.
type AgentResult struct {
	AgentID  string   `json:"agent_id"`
	CellID   string   `json:"cell_id"`
	Code     string   `json:"code"`
	CellType CellType `json:"cell_type"`
	Success  bool     `json:"success"`
}

// CoordinationResult is the structured report of a full pipeline run. On
// failure Results holds the stages that completed before the error.
type CoordinationResult struct {
	Success bool                    `json:"success"`
	Results map[string]*AgentResult `json:"results"`
	Error   string                  `json:"error,omitempty"`
	Message string                  `json:"message"`
}

// AgentStatus describes one agent's current run state for introspection.
type AgentStatus struct {
	AgentType        string   `json:"agent_type"`
	CellType         CellType `json:"cell_type"`
	Position         int      `json:"position"`
	HasGeneratedCode bool     `json:"has_generated_code"`
	MessageCount     int      `json:"message_count"`
	ContextKeys      []string `json:"context_keys"`
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// Package coordinator drives the seven-stage generation pipeline: fixed
// execution order, context broadcast between stages, and persistence of each
// stage's output.
package coordinator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"evoforge/backend/internal/agents"
	"evoforge/backend/internal/logging"
	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

var meter = otel.Meter("evoforge/backend/internal/coordinator")

var (
	runCounter, _ = meter.Int64Counter("coordination.runs",
		metric.WithDescription("Completed coordination runs, by outcome"))
	stageCounter, _ = meter.Int64Counter("coordination.stages",
		metric.WithDescription("Executed pipeline stages, by agent and outcome"))
	regenCounter, _ = meter.Int64Counter("coordination.regenerations",
		metric.WithDescription("Single-cell regenerations, by cell type"))
)

// Coordinator executes the agent pipeline for one notebook. Construct a
// fresh Coordinator per request; agents keep per-run state that must not
// leak across notebooks.
type Coordinator struct {
	cells    *services.CellService
	logger   *logging.Logger
	pipeline []agents.Agent
}

// New creates a Coordinator with a fresh agent pipeline.
func New(cells *services.CellService, gen services.Generator, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		cells:    cells,
		logger:   logger,
		pipeline: agents.NewPipeline(gen),
	}
}

// RegenerationResult reports a single-stage regeneration.
type RegenerationResult struct {
	CellType models.CellType `json:"cell_type"`
	CellID   string          `json:"cell_id"`
	Version  int             `json:"version"`
	Action   string          `json:"action"`
	Code     string          `json:"generated_code"`
}

// Coordinate runs all seven agents in fixed order. Each completed stage is
// persisted before its output is broadcast to the not-yet-run stages, so a
// stage always has every earlier output and never a later one. The first
// failure aborts the rest of the pipeline; cells already persisted stay.
func (c *Coordinator) Coordinate(ctx context.Context, notebookID string, problem *models.ProblemContext) *models.CoordinationResult {
	results := make(map[string]*models.AgentResult)

	c.logger.Info("starting agent coordination", "notebook_id", notebookID)

	for i, agent := range c.pipeline {
		c.logger.Info("executing agent", "stage", fmt.Sprintf("%d/%d", i+1, len(c.pipeline)), "agent_id", agent.ID())

		code, err := agent.GenerateCode(ctx, problem)
		if err != nil {
			c.logger.Error("code generation failed", "agent_id", agent.ID(), "error", err)
			c.recordStage(ctx, agent.ID(), false)
			return c.failure(ctx, results, fmt.Errorf("agent %s code generation failed: %w", agent.ID(), err))
		}
		c.logger.Info("code generation successful", "agent_id", agent.ID(), "chars", len(code))

		write, err := c.cells.UpsertCell(ctx, notebookID, agent.CellType(), code, agent.ID(), agent.Position())
		if err != nil {
			c.logger.Error("cell storage failed", "agent_id", agent.ID(), "error", err)
			c.recordStage(ctx, agent.ID(), false)
			return c.failure(ctx, results, fmt.Errorf("agent %s cell storage failed: %w", agent.ID(), err))
		}
		c.logger.Info("cell stored", "agent_id", agent.ID(), "cell_id", write.CellID, "version", write.Version, "action", write.Action)

		results[agent.ID()] = &models.AgentResult{
			AgentID:  agent.ID(),
			CellID:   write.CellID,
			Code:     code,
			CellType: agent.CellType(),
			Success:  true,
		}
		c.recordStage(ctx, agent.ID(), true)

		c.broadcast(i, agent, code)
	}

	c.logger.Info("agent coordination completed", "notebook_id", notebookID)
	runCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", true)))
	return &models.CoordinationResult{
		Success: true,
		Results: results,
		Message: "All agents executed successfully",
	}
}

// broadcast sends the completed stage's output to every later stage, plus
// the derived analysis after the first stage. Only the analyser broadcasts
// analysis; later agents hold a copy they received, not one they produced.
func (c *Coordinator) broadcast(index int, from agents.Agent, code string) {
	var analysis *models.Analysis
	if from.ID() == agents.AgentProblemAnalyser {
		analysis = from.Run().Analysis
	}

	for _, next := range c.pipeline[index+1:] {
		next.ReceiveMessage(agents.NewMessage(from.ID(), next.ID(), agents.MessageCodeGenerated, code))
		if analysis != nil {
			next.ReceiveMessage(agents.NewMessage(from.ID(), next.ID(), agents.MessageContextUpdate, analysis))
		}
	}
}

func (c *Coordinator) recordStage(ctx context.Context, agentID string, success bool) {
	stageCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent_id", agentID),
		attribute.Bool("success", success),
	))
}

func (c *Coordinator) failure(ctx context.Context, results map[string]*models.AgentResult, err error) *models.CoordinationResult {
	runCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", false)))
	return &models.CoordinationResult{
		Success: false,
		Results: results,
		Error:   err.Error(),
		Message: fmt.Sprintf("Agent coordination failed: %v", err),
	}
}

// RegenerateCell re-runs exactly one stage. The agent's context is seeded
// with the derived analysis and the current persisted code of every other
// cell, then the result goes through the same upsert contract as a full run.
func (c *Coordinator) RegenerateCell(ctx context.Context, notebookID string, cellType models.CellType, problem *models.ProblemContext) (*RegenerationResult, error) {
	agent := c.agentFor(cellType)
	if agent == nil {
		return nil, services.ErrInvalidCellType
	}

	existing, err := c.cells.NotebookCells(ctx, notebookID)
	if err != nil {
		return nil, &services.PersistenceError{Op: "list cells", Err: err}
	}

	agent.ReceiveMessage(agents.NewMessage(agents.AgentProblemAnalyser, agent.ID(),
		agents.MessageContextUpdate, agents.DeriveAnalysis(problem)))
	for _, cell := range existing {
		if cell.CellType == cellType {
			continue
		}
		agent.ReceiveMessage(agents.NewMessage(cell.AgentID, agent.ID(),
			agents.MessageCodeGenerated, cell.Code))
	}

	c.logger.Info("regenerating cell", "notebook_id", notebookID, "cell_type", cellType, "agent_id", agent.ID())

	code, err := agent.GenerateCode(ctx, problem)
	if err != nil {
		return nil, err
	}

	write, err := c.cells.UpsertCell(ctx, notebookID, cellType, code, agent.ID(), agent.Position())
	if err != nil {
		return nil, err
	}

	regenCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("cell_type", string(cellType))))
	return &RegenerationResult{
		CellType: cellType,
		CellID:   write.CellID,
		Version:  write.Version,
		Action:   write.Action,
		Code:     code,
	}, nil
}

// AgentStatus reports each agent's run state. Introspection only.
func (c *Coordinator) AgentStatus() map[string]*models.AgentStatus {
	status := make(map[string]*models.AgentStatus, len(c.pipeline))
	for _, agent := range c.pipeline {
		run := agent.Run()
		status[agent.ID()] = &models.AgentStatus{
			AgentType:        agent.AgentType(),
			CellType:         agent.CellType(),
			Position:         agent.Position(),
			HasGeneratedCode: agent.GeneratedCode() != "",
			MessageCount:     len(run.Messages),
			ContextKeys:      run.Keys(),
		}
	}
	return status
}

func (c *Coordinator) agentFor(cellType models.CellType) agents.Agent {
	for _, agent := range c.pipeline {
		if agent.CellType() == cellType {
			return agent
		}
	}
	return nil
}

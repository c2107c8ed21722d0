package coordinator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evoforge/backend/internal/agents"
	"evoforge/backend/internal/logging"
	"evoforge/backend/internal/repository"
	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// memCellStore is an in-memory CellStore for pipeline tests.
type memCellStore struct {
	cells map[string]*models.Cell // keyed notebookID + "/" + cellType
	seq   int
	fail  bool
}

func newMemCellStore() *memCellStore {
	return &memCellStore{cells: make(map[string]*models.Cell)}
}

func (s *memCellStore) key(notebookID string, cellType models.CellType) string {
	return notebookID + "/" + string(cellType)
}

func (s *memCellStore) Upsert(_ context.Context, notebookID string, cellType models.CellType, code, agentID string, position int) (*models.CellWriteResult, error) {
	if s.fail {
		return nil, fmt.Errorf("storage unavailable")
	}
	now := time.Now().UTC()
	if cell, ok := s.cells[s.key(notebookID, cellType)]; ok {
		cell.Code = code
		cell.AgentID = agentID
		cell.Version++
		cell.UpdatedAt = now
		return &models.CellWriteResult{CellID: cell.ID, Version: cell.Version, Action: "updated"}, nil
	}
	s.seq++
	cell := &models.Cell{
		ID:         uuid.New().String(),
		NotebookID: notebookID,
		CellType:   cellType,
		Code:       code,
		AgentID:    agentID,
		Version:    1,
		Position:   position,
		IsActive:   true,
		CreatedAt:  now.Add(time.Duration(s.seq) * time.Millisecond),
		UpdatedAt:  now,
	}
	s.cells[s.key(notebookID, cellType)] = cell
	return &models.CellWriteResult{CellID: cell.ID, Version: 1, Action: "created"}, nil
}

func (s *memCellStore) ListActive(_ context.Context, notebookID string) ([]*models.Cell, error) {
	var cells []*models.Cell
	for _, cell := range s.cells {
		if cell.NotebookID == notebookID && cell.IsActive {
			cells = append(cells, cell)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Position != cells[j].Position {
			return cells[i].Position < cells[j].Position
		}
		return cells[i].CreatedAt.Before(cells[j].CreatedAt)
	})
	return cells, nil
}

func (s *memCellStore) GetActiveByType(_ context.Context, notebookID string, cellType models.CellType) (*models.Cell, error) {
	if cell, ok := s.cells[s.key(notebookID, cellType)]; ok && cell.IsActive {
		return cell, nil
	}
	return nil, repository.ErrNotFound
}

// scriptedGenerator labels each completion with its call index and can fail
// at a chosen call.
type scriptedGenerator struct {
	calls       int
	failAtCall  int
	systemSeen  []string
	promptsSeen []string
}

func (g *scriptedGenerator) Complete(_ context.Context, req services.CompletionRequest) (string, error) {
	g.calls++
	g.systemSeen = append(g.systemSeen, req.SystemPrompt)
	g.promptsSeen = append(g.promptsSeen, req.Prompt)
	if g.failAtCall > 0 && g.calls == g.failAtCall {
		return "", &services.GenerationError{Reason: "retries exhausted"}
	}
	return fmt.Sprintf("code-for-call-%d", g.calls), nil
}

func testProblem() *models.ProblemContext {
	return &models.ProblemContext{
		Title:       "Route planning",
		Description: "Shortest delivery route",
		ProblemType: "combinatorial",
		Objectives:  []string{"minimize distance"},
		Constraints: map[string]interface{}{"vehicles": 3},
	}
}

func newTestCoordinator(store repository.CellStore, gen services.Generator) *Coordinator {
	return New(services.NewCellService(store), gen, logging.NewLogger())
}

func TestCoordinateRunsAgentsInOrder(t *testing.T) {
	store := newMemCellStore()
	gen := &scriptedGenerator{}
	coord := newTestCoordinator(store, gen)
	notebookID := uuid.New().String()

	result := coord.Coordinate(context.Background(), notebookID, testProblem())

	require.True(t, result.Success)
	require.Len(t, result.Results, 7)
	assert.Equal(t, 7, gen.calls)

	wantOrder := []string{
		"Problem Analyser", "Individuals Modelling", "Fitness Function",
		"Crossover Function", "Mutation Function", "Selection Strategy",
		"Code Integration and Validation",
	}
	for i, sys := range gen.systemSeen {
		assert.Contains(t, sys, wantOrder[i], "call %d", i+1)
	}

	cells, err := store.ListActive(context.Background(), notebookID)
	require.NoError(t, err)
	require.Len(t, cells, 7)
	for i, cell := range cells {
		assert.Equal(t, i+1, cell.Position)
		assert.Equal(t, 1, cell.Version)
	}
}

func TestCoordinateContextPropagation(t *testing.T) {
	store := newMemCellStore()
	gen := &scriptedGenerator{}
	coord := newTestCoordinator(store, gen)

	result := coord.Coordinate(context.Background(), uuid.New().String(), testProblem())
	require.True(t, result.Success)

	status := coord.AgentStatus()

	// Stage 3 sees stages 1-2 and never 4-7.
	fitness := status[agents.AgentFitnessFunction]
	assert.Contains(t, fitness.ContextKeys, "analysis")
	assert.Contains(t, fitness.ContextKeys, "problem_analyser_code")
	assert.Contains(t, fitness.ContextKeys, "individuals_modelling_code")
	assert.NotContains(t, fitness.ContextKeys, "crossover_function_code")
	assert.NotContains(t, fitness.ContextKeys, "selection_strategy_code")

	// The final stage sees everything before it.
	integration := status[agents.AgentCodeIntegration]
	for _, key := range []string{
		"problem_analyser_code", "individuals_modelling_code",
		"fitness_function_code", "crossover_function_code",
		"mutation_function_code", "selection_strategy_code",
	} {
		assert.Contains(t, integration.ContextKeys, key)
	}

	// The first stage never receives anyone's output.
	analyser := status[agents.AgentProblemAnalyser]
	assert.Equal(t, 0, analyser.MessageCount)
	assert.Equal(t, []string{"analysis"}, analyser.ContextKeys)
}

func TestCoordinatePartialFailure(t *testing.T) {
	store := newMemCellStore()
	gen := &scriptedGenerator{failAtCall: 4} // crossover stage
	coord := newTestCoordinator(store, gen)
	notebookID := uuid.New().String()

	result := coord.Coordinate(context.Background(), notebookID, testProblem())

	require.False(t, result.Success)
	assert.Contains(t, result.Error, agents.AgentCrossoverFunction)
	require.Len(t, result.Results, 3)
	for _, id := range []string{agents.AgentProblemAnalyser, agents.AgentIndividualsModelling, agents.AgentFitnessFunction} {
		require.Contains(t, result.Results, id)
		assert.True(t, result.Results[id].Success)
	}
	assert.NotContains(t, result.Results, agents.AgentCrossoverFunction)
	assert.NotContains(t, result.Results, agents.AgentCodeIntegration)

	// Completed stages stay persisted at version 1, nothing else exists.
	cells, err := store.ListActive(context.Background(), notebookID)
	require.NoError(t, err)
	require.Len(t, cells, 3)
	for _, cell := range cells {
		assert.Equal(t, 1, cell.Version)
	}
	assert.Equal(t, 4, gen.calls, "no stage runs after the failure")
}

func TestCoordinatePersistenceFailureAborts(t *testing.T) {
	store := newMemCellStore()
	store.fail = true
	gen := &scriptedGenerator{}
	coord := newTestCoordinator(store, gen)

	result := coord.Coordinate(context.Background(), uuid.New().String(), testProblem())

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "cell storage failed")
	assert.Empty(t, result.Results)
	assert.Equal(t, 1, gen.calls)
}

func TestRegenerateCellIsolation(t *testing.T) {
	store := newMemCellStore()
	notebookID := uuid.New().String()

	full := newTestCoordinator(store, &scriptedGenerator{})
	require.True(t, full.Coordinate(context.Background(), notebookID, testProblem()).Success)

	// A fresh coordinator regenerates exactly one stage.
	regen := newTestCoordinator(store, &scriptedGenerator{})
	result, err := regen.RegenerateCell(context.Background(), notebookID, models.CellTypeFitness, testProblem())
	require.NoError(t, err)
	assert.Equal(t, "updated", result.Action)
	assert.Equal(t, 2, result.Version)
	assert.Equal(t, "code-for-call-1", result.Code)

	cells, err := store.ListActive(context.Background(), notebookID)
	require.NoError(t, err)
	for _, cell := range cells {
		if cell.CellType == models.CellTypeFitness {
			assert.Equal(t, 2, cell.Version)
		} else {
			assert.Equal(t, 1, cell.Version, "cell %s", cell.CellType)
		}
	}

	// The regenerated agent was seeded with the other six cells' code.
	status := regen.AgentStatus()[agents.AgentFitnessFunction]
	for _, key := range []string{
		"problem_analyser_code", "individuals_modelling_code",
		"crossover_function_code", "mutation_function_code",
		"selection_strategy_code", "code_integration_code",
	} {
		assert.Contains(t, status.ContextKeys, key)
	}
	assert.NotContains(t, strings.Join(status.ContextKeys, ","), "fitness_function_code")
}

func TestRegenerateInvalidCellType(t *testing.T) {
	coord := newTestCoordinator(newMemCellStore(), &scriptedGenerator{})

	_, err := coord.RegenerateCell(context.Background(), uuid.New().String(), models.CellType("bogus"), testProblem())
	assert.ErrorIs(t, err, services.ErrInvalidCellType)
}

func TestMetricInstrumentsRegistered(t *testing.T) {
	// Instrument construction must succeed even without a metrics SDK
	// installed; every Coordinate/RegenerateCell call records through these.
	require.NotNil(t, runCounter)
	require.NotNil(t, stageCounter)
	require.NotNil(t, regenCounter)
}

func TestAgentStatusBeforeRun(t *testing.T) {
	coord := newTestCoordinator(newMemCellStore(), &scriptedGenerator{})

	status := coord.AgentStatus()
	require.Len(t, status, 7)
	for id, st := range status {
		assert.False(t, st.HasGeneratedCode, "agent %s", id)
		assert.Equal(t, 0, st.MessageCount)
		assert.Empty(t, st.ContextKeys)
	}
	assert.Equal(t, 1, status[agents.AgentProblemAnalyser].Position)
	assert.Equal(t, models.CellTypeToolboxRegistration, status[agents.AgentCodeIntegration].CellType)
}

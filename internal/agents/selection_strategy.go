package agents

import (
	"context"
	"fmt"

	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// SelectionStrategy generates selection strategy functions. Requires the
// problem analysis and the fitness function code.
type SelectionStrategy struct {
	base
}

// NewSelectionStrategy creates the selection strategy agent.
func NewSelectionStrategy(gen services.Generator) *SelectionStrategy {
	return &SelectionStrategy{
		base: newBase(AgentSelectionStrategy, "Selection Strategy", models.CellTypeSelection, 6, gen),
	}
}

// GenerateCode produces the selection function code.
func (a *SelectionStrategy) GenerateCode(ctx context.Context, problem *models.ProblemContext) (string, error) {
	analysis, err := a.requireAnalysis()
	if err != nil {
		return "", err
	}
	fitnessCode, err := a.requireCode(AgentFitnessFunction)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Generate a DEAP selection function based on:

Problem Type: %s
Optimization Direction: %s
Fitness Function: %s

Generate a selection function that:
1. Takes population and selection size
2. Selects individuals based on fitness
3. Uses appropriate selection pressure
4. Handles the optimization direction correctly
5. Returns selected individuals

Return only the Python function code with comments.`,
		analysis.ProblemType, analysis.OptimizationDirection, snippet(fitnessCode, 200))

	return a.complete(ctx, prompt, 800)
}

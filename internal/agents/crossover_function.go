package agents

import (
	"context"
	"fmt"

	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// CrossoverFunction generates crossover/recombination functions. Requires
// the problem analysis and the individual representation code.
type CrossoverFunction struct {
	base
}

// NewCrossoverFunction creates the crossover function agent.
func NewCrossoverFunction(gen services.Generator) *CrossoverFunction {
	return &CrossoverFunction{
		base: newBase(AgentCrossoverFunction, "Crossover Function", models.CellTypeCrossover, 4, gen),
	}
}

// GenerateCode produces the crossover function code.
func (a *CrossoverFunction) GenerateCode(ctx context.Context, problem *models.ProblemContext) (string, error) {
	analysis, err := a.requireAnalysis()
	if err != nil {
		return "", err
	}
	individualCode, err := a.requireCode(AgentIndividualsModelling)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Generate a DEAP crossover function based on:

Problem Type: %s
Individual Structure: %s
Constraints: %v

Generate a crossover function that:
1. Takes two parent individuals
2. Creates offspring through recombination
3. Maintains individual structure integrity
4. Handles problem constraints
5. Returns modified individuals

Return only the Python function code with comments.`,
		analysis.ProblemType, snippet(individualCode, 200), analysis.Constraints)

	return a.complete(ctx, prompt, 800)
}

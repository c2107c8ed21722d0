package agents

import (
	"context"
	"fmt"

	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// FitnessFunction generates fitness evaluation functions. Requires the
// problem analysis and the individual representation code.
type FitnessFunction struct {
	base
}

// NewFitnessFunction creates the fitness function agent.
func NewFitnessFunction(gen services.Generator) *FitnessFunction {
	return &FitnessFunction{
		base: newBase(AgentFitnessFunction, "Fitness Function", models.CellTypeFitness, 3, gen),
	}
}

// GenerateCode produces the fitness function code.
func (a *FitnessFunction) GenerateCode(ctx context.Context, problem *models.ProblemContext) (string, error) {
	analysis, err := a.requireAnalysis()
	if err != nil {
		return "", err
	}
	individualCode, err := a.requireCode(AgentIndividualsModelling)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Generate a DEAP fitness function based on:

Problem Type: %s
Individual Structure: %s

Objectives: %v
Constraints: %v
Optimization: %s

Generate a fitness function that:
1. Takes an individual as input
2. Evaluates against the objectives
3. Handles constraints appropriately
4. Returns fitness as a tuple
5. Is DEAP-compatible

Return only the Python function code with comments.`,
		analysis.ProblemType, snippet(individualCode, 200),
		analysis.Objectives, analysis.Constraints, analysis.OptimizationDirection)

	return a.complete(ctx, prompt, 1000)
}

package agents

import (
	"context"
	"fmt"

	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// MutationFunction generates mutation functions. Requires the problem
// analysis and the individual representation code.
type MutationFunction struct {
	base
}

// NewMutationFunction creates the mutation function agent.
func NewMutationFunction(gen services.Generator) *MutationFunction {
	return &MutationFunction{
		base: newBase(AgentMutationFunction, "Mutation Function", models.CellTypeMutation, 5, gen),
	}
}

// GenerateCode produces the mutation function code.
func (a *MutationFunction) GenerateCode(ctx context.Context, problem *models.ProblemContext) (string, error) {
	analysis, err := a.requireAnalysis()
	if err != nil {
		return "", err
	}
	individualCode, err := a.requireCode(AgentIndividualsModelling)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Generate a DEAP mutation function based on:

Problem Type: %s
Individual Structure: %s
Constraints: %v

Generate a mutation function that:
1. Takes an individual as input
2. Applies random modifications
3. Maintains solution feasibility
4. Handles problem constraints
5. Returns modified individual as tuple

Return only the Python function code with comments.`,
		analysis.ProblemType, snippet(individualCode, 200), analysis.Constraints)

	return a.complete(ctx, prompt, 800)
}

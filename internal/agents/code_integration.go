package agents

import (
	"context"
	"fmt"

	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// CodeIntegration integrates all generated fragments into the DEAP toolbox
// registration. Requires every prior stage's code.
type CodeIntegration struct {
	base
}

// NewCodeIntegration creates the code integration agent.
func NewCodeIntegration(gen services.Generator) *CodeIntegration {
	return &CodeIntegration{
		base: newBase(AgentCodeIntegration, "Code Integration and Validation", models.CellTypeToolboxRegistration, 7, gen),
	}
}

// GenerateCode produces the complete toolbox registration code.
func (a *CodeIntegration) GenerateCode(ctx context.Context, problem *models.ProblemContext) (string, error) {
	individualCode, err := a.requireCode(AgentIndividualsModelling)
	if err != nil {
		return "", err
	}
	fitnessCode, err := a.requireCode(AgentFitnessFunction)
	if err != nil {
		return "", err
	}
	crossoverCode, err := a.requireCode(AgentCrossoverFunction)
	if err != nil {
		return "", err
	}
	mutationCode, err := a.requireCode(AgentMutationFunction)
	if err != nil {
		return "", err
	}
	selectionCode, err := a.requireCode(AgentSelectionStrategy)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Create DEAP toolbox registration code that integrates all the generated functions:

Individual Code:
%s

Fitness Code:
%s

Crossover Code:
%s

Mutation Code:
%s

Selection Code:
%s

Generate code that:
1. Creates DEAP toolbox instance
2. Registers all the functions properly
3. Sets up population creation
4. Adds any missing imports
5. Provides a complete working toolbox

Return only the Python code with comments.`,
		snippet(individualCode, 300), snippet(fitnessCode, 300), snippet(crossoverCode, 300),
		snippet(mutationCode, 300), snippet(selectionCode, 300))

	return a.complete(ctx, prompt, 1200)
}

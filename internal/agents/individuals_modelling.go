package agents

import (
	"context"
	"fmt"

	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// IndividualsModelling models the individual representation and
// initialization. Requires the problem analysis.
type IndividualsModelling struct {
	base
}

// NewIndividualsModelling creates the individuals modelling agent.
func NewIndividualsModelling(gen services.Generator) *IndividualsModelling {
	return &IndividualsModelling{
		base: newBase(AgentIndividualsModelling, "Individuals Modelling", models.CellTypeIndividualRepr, 2, gen),
	}
}

// GenerateCode produces the individual representation and initialization
// code.
func (a *IndividualsModelling) GenerateCode(ctx context.Context, problem *models.ProblemContext) (string, error) {
	analysis, err := a.requireAnalysis()
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Based on this problem analysis, generate DEAP individual representation code:

Problem Type: %s
Objectives: %v
Constraints: %v

Generate Python code that:
1. Defines individual representation (list, tree, etc.)
2. Creates initialization function
3. Registers individual creation in toolbox
4. Handles problem-specific constraints

Focus on the individual structure and initialization only.
Return only the Python code with comments.`,
		analysis.ProblemType, analysis.Objectives, analysis.Constraints)

	return a.complete(ctx, prompt, 800)
}

package agents

import (
	"context"
	"fmt"

	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// ProblemAnalyser analyzes the problem and sets up context for the other
// agents. It is the first stage and has no dependencies.
type ProblemAnalyser struct {
	base
}

// NewProblemAnalyser creates the problem analyser agent.
func NewProblemAnalyser(gen services.Generator) *ProblemAnalyser {
	return &ProblemAnalyser{
		base: newBase(AgentProblemAnalyser, "Problem Analyser", models.CellTypeProblemAnalysis, 1, gen),
	}
}

// GenerateCode produces DEAP setup code and derives the structured analysis
// later stages consume.
func (a *ProblemAnalyser) GenerateCode(ctx context.Context, problem *models.ProblemContext) (string, error) {
	prompt := fmt.Sprintf(`Analyze this optimization problem and generate DEAP setup code:

Problem: %s
Description: %s
Type: %s
Objectives: %v
Constraints: %v

Generate Python code that:
1. Imports necessary DEAP modules
2. Defines the problem structure
3. Sets up creator for Individual and Fitness
4. Documents the problem characteristics

Return only the Python code with comments.`,
		problem.Title, problem.Description, problem.ProblemType, problem.Objectives, problem.Constraints)

	code, err := a.complete(ctx, prompt, 1000)
	if err != nil {
		return "", err
	}

	a.run.Analysis = DeriveAnalysis(problem)
	return code, nil
}

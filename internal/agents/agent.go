// Package agents implements the seven pipeline stages that turn an
// optimization problem statement into DEAP program fragments.
package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

// Stable agent ids, used as pipeline keys and cell producers.
const (
	AgentProblemAnalyser      = "problem_analyser"
	AgentIndividualsModelling = "individuals_modelling"
	AgentFitnessFunction      = "fitness_function"
	AgentCrossoverFunction    = "crossover_function"
	AgentMutationFunction     = "mutation_function"
	AgentSelectionStrategy    = "selection_strategy"
	AgentCodeIntegration      = "code_integration"
)

// Message kinds exchanged between agents.
const (
	MessageContextUpdate = "context_update"
	MessageCodeGenerated = "code_generated"
)

// Message carries one piece of context from a completed stage to a
// not-yet-run one.
type Message struct {
	ID        string
	From      string
	To        string
	Type      string
	Content   interface{}
	Timestamp time.Time
}

// NewMessage creates a message between two agents.
func NewMessage(from, to, msgType string, content interface{}) Message {
	return Message{
		ID:        uuid.New().String(),
		From:      from,
		To:        to,
		Type:      msgType,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// RunContext is the mutable state an agent accumulates during one
// coordination run. Agent identity stays on the agent itself; everything a
// run mutates lives here, so a fresh pipeline starts clean.
type RunContext struct {
	// Analysis is the structured problem summary derived by the problem
	// analyser and broadcast to later stages.
	Analysis *models.Analysis
	// Code maps "{producer_agent_id}_code" to that stage's output.
	Code map[string]string
	// Messages logs everything received, for introspection.
	Messages []Message
}

// NewRunContext creates an empty RunContext.
func NewRunContext() *RunContext {
	return &RunContext{Code: make(map[string]string)}
}

// CodeKey builds the context key under which an agent's output is stored.
func CodeKey(agentID string) string {
	return agentID + "_code"
}

// Keys lists the populated context keys in stable order.
func (rc *RunContext) Keys() []string {
	keys := make([]string, 0, len(rc.Code)+1)
	if rc.Analysis != nil {
		keys = append(keys, "analysis")
	}
	for k := range rc.Code {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MissingDependencyError reports that a stage ran without a prior stage's
// output it depends on.
type MissingDependencyError struct {
	AgentID string
	Key     string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("agent %s missing required context %q", e.AgentID, e.Key)
}

// Agent is one pipeline stage. Identity and position are fixed at
// construction; run state accumulates in the RunContext.
type Agent interface {
	ID() string
	AgentType() string
	CellType() models.CellType
	Position() int
	// GenerateCode builds this stage's prompt from the problem context and
	// accumulated run context and calls the generation backend.
	GenerateCode(ctx context.Context, problem *models.ProblemContext) (string, error)
	// ReceiveMessage merges broadcast context into the run context.
	ReceiveMessage(msg Message)
	// Run exposes the accumulated run context for introspection and
	// regeneration seeding.
	Run() *RunContext
	// GeneratedCode returns the most recent output, empty before the
	// first run.
	GeneratedCode() string
}

// base carries the shared identity, run state, and generation plumbing for
// all concrete agents.
type base struct {
	id        string
	agentType string
	cellType  models.CellType
	position  int
	gen       services.Generator
	run       *RunContext
	generated string
}

func newBase(id, agentType string, cellType models.CellType, position int, gen services.Generator) base {
	return base{
		id:        id,
		agentType: agentType,
		cellType:  cellType,
		position:  position,
		gen:       gen,
		run:       NewRunContext(),
	}
}

func (b *base) ID() string                { return b.id }
func (b *base) AgentType() string         { return b.agentType }
func (b *base) CellType() models.CellType { return b.cellType }
func (b *base) Position() int             { return b.position }
func (b *base) Run() *RunContext          { return b.run }
func (b *base) GeneratedCode() string     { return b.generated }

// ReceiveMessage merges broadcast content into the run context. A
// context_update carries the derived analysis; code_generated stores the
// sender's output under "{sender}_code".
func (b *base) ReceiveMessage(msg Message) {
	b.run.Messages = append(b.run.Messages, msg)

	switch msg.Type {
	case MessageContextUpdate:
		if analysis, ok := msg.Content.(*models.Analysis); ok {
			b.run.Analysis = analysis
		}
	case MessageCodeGenerated:
		if code, ok := msg.Content.(string); ok {
			b.run.Code[CodeKey(msg.From)] = code
		}
	}
}

// systemPrompt identifies the agent's role to the generation backend.
func (b *base) systemPrompt() string {
	return fmt.Sprintf("You are a %s agent for evolutionary algorithms using DEAP framework.", b.agentType)
}

// complete calls the generation backend and records the output.
func (b *base) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	code, err := b.gen.Complete(ctx, services.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: b.systemPrompt(),
		MaxTokens:    maxTokens,
	})
	if err != nil {
		return "", err
	}
	b.generated = code
	return code, nil
}

// requireAnalysis returns the broadcast analysis or fails loudly.
func (b *base) requireAnalysis() (*models.Analysis, error) {
	if b.run.Analysis == nil {
		return nil, &MissingDependencyError{AgentID: b.id, Key: "analysis"}
	}
	return b.run.Analysis, nil
}

// requireCode returns a prior stage's output or fails loudly.
func (b *base) requireCode(producerID string) (string, error) {
	code, ok := b.run.Code[CodeKey(producerID)]
	if !ok || code == "" {
		return "", &MissingDependencyError{AgentID: b.id, Key: CodeKey(producerID)}
	}
	return code, nil
}

// snippet truncates code for prompt embedding.
func snippet(code string, n int) string {
	if len(code) <= n {
		return code
	}
	return code[:n] + "..."
}

// DeriveAnalysis builds the structured problem summary downstream agents
// consume. The direction is "maximize" iff the word appears anywhere in the
// objectives. The individual structure is always "list"; every downstream
// prompt assumes it, so changing it means changing all of them.
func DeriveAnalysis(problem *models.ProblemContext) *models.Analysis {
	problemType := problem.ProblemType
	if problemType == "" {
		problemType = "optimization"
	}

	direction := "minimize"
	if strings.Contains(strings.ToLower(fmt.Sprintf("%v", problem.Objectives)), "maximize") {
		direction = "maximize"
	}

	return &models.Analysis{
		ProblemType:           problemType,
		Objectives:            problem.Objectives,
		Constraints:           problem.Constraints,
		IndividualStructure:   "list",
		OptimizationDirection: direction,
	}
}

// NewPipeline constructs a fresh set of the seven agents in execution order.
// Every coordination run gets its own pipeline so run state never leaks
// across notebooks.
func NewPipeline(gen services.Generator) []Agent {
	return []Agent{
		NewProblemAnalyser(gen),
		NewIndividualsModelling(gen),
		NewFitnessFunction(gen),
		NewCrossoverFunction(gen),
		NewMutationFunction(gen),
		NewSelectionStrategy(gen),
		NewCodeIntegration(gen),
	}
}

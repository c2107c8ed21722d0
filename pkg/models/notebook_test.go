package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProblemContext(t *testing.T) {
	p := &Problem{
		ID:          "p1",
		UserID:      "alice",
		Title:       "Knapsack",
		Description: "Pick items maximizing value under a weight limit",
		ProblemType: "combinatorial",
		Objectives:  []string{"maximize total value"},
		Constraints: map[string]interface{}{"max_weight": 50},
	}

	pc := p.Context()

	assert.Equal(t, &ProblemContext{
		Title:       "Knapsack",
		Description: "Pick items maximizing value under a weight limit",
		ProblemType: "combinatorial",
		Objectives:  []string{"maximize total value"},
		Constraints: map[string]interface{}{"max_weight": 50},
	}, pc, "identity and timestamps stay off the pipeline input")
}

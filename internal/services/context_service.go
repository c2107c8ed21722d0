package services

import (
	"fmt"
	"strings"
)

// ContextService condenses prompt material to stay inside the generation
// backend's token window.
type ContextService struct {
	maxTokens int
}

// NewContextService creates a ContextService with the given token budget.
func NewContextService(maxTokens int) *ContextService {
	if maxTokens <= 0 {
		maxTokens = 3000
	}
	return &ContextService{maxTokens: maxTokens}
}

// EstimateTokens approximates token count at four characters per token.
func (s *ContextService) EstimateTokens(text string) int {
	return len(text) / 4
}

// Compress truncates context that exceeds the token budget, keeping the first
// and last quarters of the lines.
func (s *ContextService) Compress(fullContext string) string {
	if s.EstimateTokens(fullContext) <= s.maxTokens {
		return fullContext
	}

	lines := strings.Split(fullContext, "\n")
	if len(lines) <= 10 {
		targetChars := s.maxTokens * 3
		if targetChars > len(fullContext) {
			targetChars = len(fullContext)
		}
		return fullContext[:targetChars] + "\n[...context truncated...]"
	}

	quarter := len(lines) / 4
	compressed := make([]string, 0, 2*quarter+1)
	compressed = append(compressed, lines[:quarter]...)
	compressed = append(compressed, "\n[...middle context compressed...]\n")
	compressed = append(compressed, lines[len(lines)-quarter:]...)
	return strings.Join(compressed, "\n")
}

// AgentPrompt is the pair of prompts sent to the generation backend for a
// chat-driven code discussion.
type AgentPrompt struct {
	SystemPrompt string
	UserPrompt   string
}

// BuildAgentContext assembles a condensed prompt from the problem
// description, the current cell code, recent chat, and optional feedback.
func (s *ContextService) BuildAgentContext(problemDescription, agentType, currentCode, chatHistory, feedback string) AgentPrompt {
	parts := []string{fmt.Sprintf("PROBLEM DESCRIPTION:\n%s", problemDescription)}

	if currentCode != "" {
		parts = append(parts, fmt.Sprintf("CURRENT %s CODE:\n%s", strings.ToUpper(agentType), currentCode))
	}
	if feedback != "" {
		parts = append(parts, fmt.Sprintf("USER FEEDBACK:\n%s", feedback))
	}
	if chatHistory != "" {
		parts = append(parts, fmt.Sprintf("RECENT CONVERSATION:\n%s", s.Compress(chatHistory)))
	}

	systemPrompt := fmt.Sprintf(`You are a %s agent for evolutionary algorithms using DEAP framework.
Generate Python code that follows DEAP conventions and best practices.
Focus on writing clean, functional code that addresses the specific requirements.`, agentType)

	return AgentPrompt{
		SystemPrompt: systemPrompt,
		UserPrompt:   s.Compress(strings.Join(parts, "\n\n")),
	}
}

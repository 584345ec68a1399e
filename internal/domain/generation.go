package domain

import "context"

// Generator produces raw answer text from a packed context and question.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationRequest carries everything one completion call needs.
type GenerationRequest struct {
	SystemPrompt string
	Context      string
	Question     string
}

// GenerationResult carries the raw model reply and its token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

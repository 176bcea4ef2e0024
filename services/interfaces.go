package services

import "context"

// CompletionService sends a system and user prompt to a language model and returns its text reply
type CompletionService interface {
	InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Compile-time interface verification
var _ CompletionService = (*OpenAIService)(nil)
var _ CompletionService = (*BedrockService)(nil)

package interfaces

import "context"

// CompletionRequest carries one prompt to an LLM provider.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// Completer produces a free-text completion for a prompt. Providers
// return llm.Error values with a failure category on error.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

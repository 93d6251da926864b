package llm

import "context"

// Request contains text-completion parameters. The triage prompts carry all
// their instructions inline, so a single prompt string is enough.
type Request struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Response contains the completion result
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete generates a free-text completion for the prompt
	Complete(ctx context.Context, req Request, model string) (*Response, error)
}

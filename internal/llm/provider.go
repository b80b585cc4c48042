// Package llm defines the provider-agnostic interface for LLM completions.
package llm

import "context"

// Provider is the abstraction over any LLM backend (Groq, OpenAI, Ollama).
type Provider interface {
	// Complete sends a prompt to the LLM and returns its response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the provider identifier (e.g. "groq").
	Name() string
}

// Request is a single completion request.
type Request struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	// Temperature in [0, 2]. The zero value means "provider default",
	// so a literal 0 must be expressed as a tiny positive number.
	Temperature float64
}

// Response is what the LLM returns.
type Response struct {
	Content    string
	Usage      Usage
	StopReason string // "end_turn", "max_tokens"
}

// Usage tracks token consumption for cost accounting.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

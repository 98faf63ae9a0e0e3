// Package llm contains the text-generation clients: a primary HTTP service,
// a credential-rotating fallback service, and the arbiter that switches
// between them.
package llm

import "context"

// Request is a single generation request. It is an immutable value passed
// into every provider call.
type Request struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
}

// Result is the outcome of a successful generation, tagged with the
// provider and, for the rotating provider, the credential index that
// served it.
type Result struct {
	Text     string
	Provider string
	KeyIndex int // -1 when the provider does not rotate credentials
}

// Generator is the interface shared by all generation backends.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

package providers

import "context"

// Message is a single completion-request message. It mirrors the tagged
// Message union consumed by the council and context-memory packages, kept
// minimal here: providers only need role and rendered content.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the uniform request shape accepted by every
// Provider. Callers never depend on a concrete vendor's wire format.
type CompletionRequest struct {
	Messages      []Message `json:"messages"`
	Tools         []string  `json:"tools,omitempty"`
	Temperature   float64   `json:"temperature"`
	MaxTokens     int       `json:"max_tokens,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
	Model         string    `json:"model,omitempty"`
}

// TokenUsage records input/output token counts for a single completion.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// CompletionResult is the uniform response shape returned by Complete.
type CompletionResult struct {
	Message Message    `json:"message"`
	Usage   TokenUsage `json:"usage"`
}

// Provider is the uniform completion capability. Implementations must be
// safe for concurrent use: the council shares a Provider across goroutines
// as a read-only handle.
//
// Errors returned from Complete are classified by ClassifyError into the
// Connection/ApiRequest/ResponseParse taxonomy. Transient conditions are
// never retried inside Complete itself; retry policy lives above this
// interface.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	ContextWindow() int
	CostPerToken() (inRate, outRate float64)
	Name() string
}

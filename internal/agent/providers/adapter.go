package providers

import (
	"context"
	"fmt"

	"github.com/nexuscore/core/internal/agent"
)

// StreamingAdapter wraps an agent.LLMProvider's streaming Complete behind
// the synchronous Provider interface the council expects, draining every
// chunk into one CompletionResult.
type StreamingAdapter struct {
	inner         agent.LLMProvider
	inRate        float64
	outRate       float64
	defaultWindow int
}

// NewStreamingAdapter wraps inner. inRate/outRate are USD cost per token;
// defaultWindow is used when inner reports no models.
func NewStreamingAdapter(inner agent.LLMProvider, inRate, outRate float64, defaultWindow int) *StreamingAdapter {
	return &StreamingAdapter{inner: inner, inRate: inRate, outRate: outRate, defaultWindow: defaultWindow}
}

// Complete drains inner's streaming response into a single result,
// concatenating text chunks and taking the token counts from the Done chunk.
func (a *StreamingAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	areq := &agent.CompletionRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	}
	areq.Messages = make([]agent.CompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		areq.Messages[i] = agent.CompletionMessage{Role: m.Role, Content: m.Content}
	}

	chunks, err := a.inner.Complete(ctx, areq)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("%s: %w", a.inner.Name(), err)
	}

	var result CompletionResult
	var text []byte
	for chunk := range chunks {
		if chunk.Error != nil {
			return CompletionResult{}, fmt.Errorf("%s: %w", a.inner.Name(), chunk.Error)
		}
		text = append(text, chunk.Text...)
		if chunk.Done {
			result.Usage.InputTokens = chunk.InputTokens
			result.Usage.OutputTokens = chunk.OutputTokens
		}
	}
	result.Message = Message{Role: "assistant", Content: string(text)}
	return result, nil
}

// ContextWindow returns the largest context window across inner's models,
// or defaultWindow when that is larger (including when inner reports none).
func (a *StreamingAdapter) ContextWindow() int {
	best := a.defaultWindow
	for _, m := range a.inner.Models() {
		if m.ContextSize > best {
			best = m.ContextSize
		}
	}
	return best
}

// CostPerToken returns the configured input/output USD rates.
func (a *StreamingAdapter) CostPerToken() (float64, float64) { return a.inRate, a.outRate }

// Name delegates to inner.
func (a *StreamingAdapter) Name() string { return a.inner.Name() }

package council

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexuscore/core/internal/agent/providers"
)

func (c *Council) stageSynthesis(ctx context.Context, question string, responses []MemberResponse, reviews []PeerReview, strategy VotingStrategy) (string, error) {
	chairman := c.Members[c.ChairmanIdx]

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "You are the chairman of an LLM council. Multiple models have responded to the following question:\n\n%q\n\n", question)

	for i, resp := range responses {
		if resp.Err != nil {
			continue
		}
		fmt.Fprintf(&prompt, "--- %s ---\n%s\n\n", responseLabel(i), resp.Text)
	}

	if len(reviews) > 0 {
		prompt.WriteString("--- Peer Reviews ---\n")
		for _, r := range reviews {
			fmt.Fprintf(&prompt, "Review of %s (score: %d/10): %s\n", responseLabel(r.ReviewedIdx), r.Score, r.Reasoning)
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("Your task: ")
	prompt.WriteString(strategyInstruction(strategy))
	prompt.WriteString("\n\nProvide your final synthesized answer:")

	maxTokens := chairman.MaxMemberTokens * 2
	req := providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: "system", Content: "You are the chairman of an LLM council, responsible for producing a final synthesized answer from multiple model responses."},
			{Role: "user", Content: prompt.String()},
		},
		Temperature: 0.5,
		MaxTokens:   maxTokens,
	}

	if chairman.Provider == nil {
		return "", fmt.Errorf("chairman %s has no provider", chairman.ID)
	}
	result, err := chairman.Provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return result.Message.Content, nil
}

func strategyInstruction(strategy VotingStrategy) string {
	switch strategy {
	case HighestScore:
		return "Identify the highest-quality response based on peer reviews. Present it as the final answer with minimal modifications."
	case MajorityConsensus:
		return "Identify the points where most responses agree. Present the consensus view, noting any significant dissenting perspectives."
	default:
		return "Synthesize the best elements from all responses into a comprehensive, well-structured final answer. Resolve any contradictions and add your own insights."
	}
}

var planningKeywords = []string{
	"plan", "design", "architect", "strategy", "approach", "compare",
	"evaluate", "trade-off", "tradeoff", "pros and cons", "best way to",
	"how should", "what approach", "recommend", "analyze", "brainstorm",
	"review my", "help me decide", "which is better",
}

var concreteKeywords = []string{
	"fix", "write", "create file", "delete", "run", "execute", "install",
	"commit", "push", "deploy", "read file", "open", "close", "set", "update",
}

// ShouldUseCouncil returns true iff the task mentions planning vocabulary
// and does not mention concrete-action vocabulary. Concrete wins on tie.
func ShouldUseCouncil(taskText string) bool {
	lower := strings.ToLower(taskText)

	hasPlanning := false
	for _, kw := range planningKeywords {
		if strings.Contains(lower, kw) {
			hasPlanning = true
			break
		}
	}

	hasConcrete := false
	for _, kw := range concreteKeywords {
		if strings.Contains(lower, kw) {
			hasConcrete = true
			break
		}
	}

	return hasPlanning && !hasConcrete
}

package contextmem

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexuscore/core/internal/agent/providers"
)

// Summary is the result of summarizing a span of working history.
type Summary struct {
	Text               string
	MessagesSummarized int
	TokensSaved        int
}

// Summarizer generates summaries of conversation history using an LLM,
// trading message-level detail for a compact running narrative once the
// working window grows large.
type Summarizer struct {
	Provider providers.Provider
}

// NewSummarizer constructs a Summarizer backed by provider.
func NewSummarizer(provider providers.Provider) *Summarizer {
	return &Summarizer{Provider: provider}
}

// Summarize produces a summary of messages. An empty slice yields a
// zero-value Summary without calling the provider.
func (s *Summarizer) Summarize(ctx context.Context, messages []Message) (Summary, error) {
	if len(messages) == 0 {
		return Summary{}, nil
	}

	prompt := buildSummarizationPrompt(messages)
	req := providers.CompletionRequest{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   500,
	}

	result, err := s.Provider.Complete(ctx, req)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}

	summaryText := result.Message.Content
	if summaryText == "" {
		summaryText = "[Summary unavailable]"
	}

	originalTokens := EstimateMessages(messages)
	summaryTokens := len(summaryText) / CharsPerToken
	tokensSaved := originalTokens - summaryTokens
	if tokensSaved < 0 {
		tokensSaved = 0
	}

	return Summary{
		Text:               summaryText,
		MessagesSummarized: len(messages),
		TokensSaved:        tokensSaved,
	}, nil
}

// ShouldSummarize reports whether contextRatio has crossed threshold.
func ShouldSummarize(contextRatio, threshold float64) bool {
	return contextRatio >= threshold
}

func buildSummarizationPrompt(messages []Message) string {
	var b strings.Builder
	b.WriteString("Summarize the following conversation concisely, preserving:\n")
	b.WriteString("- Key decisions and conclusions\n")
	b.WriteString("- Important facts and data points\n")
	b.WriteString("- Tool results and their outcomes\n")
	b.WriteString("- Current task goals and progress\n\n")
	b.WriteString("Conversation:\n")

	for _, msg := range messages {
		role := displayRole(msg.Role)
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(renderMessageText(msg))
		b.WriteString("\n")
	}

	b.WriteString("\nProvide a concise summary (3-5 sentences) capturing the essential context:")
	return b.String()
}

func displayRole(role string) string {
	switch role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	case "system":
		return "System"
	case "tool":
		return "Tool"
	default:
		return role
	}
}

func renderMessageText(msg Message) string {
	switch msg.Kind {
	case KindToolCall:
		return fmt.Sprintf("[Tool Call: %s (%s)]", msg.ToolName, msg.ToolArgs)
	case KindToolResult:
		return fmt.Sprintf("[Tool Result: %s]", msg.ToolOut)
	case KindThinking:
		return fmt.Sprintf("[Thinking: %s]", msg.Text)
	case KindImage:
		return fmt.Sprintf("[Image: %s]", msg.ImageMIME)
	default:
		return msg.Text
	}
}

// truncateAtBoundary truncates s to at most max bytes without splitting a
// UTF-8 rune.
func truncateAtBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	end := max
	for end > 0 && !isRuneBoundary(s, end) {
		end--
	}
	return s[:end]
}

func isRuneBoundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return (s[i] & 0xC0) != 0x80
}

// SmartFallbackSummary builds a structured fallback summary without
// calling an LLM: it keeps the first and last message (when they are
// text) plus every tool call/result. A result longer than maxChars is cut
// to maxChars bytes and "..." is appended. Summarize does not call it: on
// a provider error Summarize returns that error.
func SmartFallbackSummary(messages []Message, maxChars int) string {
	if len(messages) == 0 {
		return ""
	}

	quarter := maxChars / 4
	var parts []string

	if first := messages[0]; first.Kind == KindText {
		parts = append(parts, fmt.Sprintf("[Start] %s", truncateAtBoundary(first.Text, quarter)))
	}

	for _, msg := range messages {
		switch msg.Kind {
		case KindToolCall:
			parts = append(parts, fmt.Sprintf("[Tool: %s]", msg.ToolName))
		case KindToolResult:
			parts = append(parts, fmt.Sprintf("[Result: %s]", truncateAtBoundary(msg.ToolOut, 80)))
		}
	}

	if len(messages) > 1 {
		if last := messages[len(messages)-1]; last.Kind == KindText {
			parts = append(parts, fmt.Sprintf("[Latest] %s", truncateAtBoundary(last.Text, quarter)))
		}
	}

	joined := strings.Join(parts, "\n")
	if len(joined) > maxChars {
		return truncateAtBoundary(joined, maxChars) + "..."
	}
	return joined
}

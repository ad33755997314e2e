package contextmem

import (
	"context"
	"strings"
	"testing"

	"github.com/nexuscore/core/internal/agent/providers"
)

type stubProvider struct {
	answer string
	err    error
}

func (s *stubProvider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResult, error) {
	if s.err != nil {
		return providers.CompletionResult{}, s.err
	}
	return providers.CompletionResult{Message: providers.Message{Role: "assistant", Content: s.answer}}, nil
}
func (s *stubProvider) ContextWindow() int               { return 100000 }
func (s *stubProvider) CostPerToken() (float64, float64) { return 0.0001, 0.0002 }
func (s *stubProvider) Name() string                     { return "stub" }

func TestEstimateTokens_TextMessage(t *testing.T) {
	msg := Message{Role: "user", Kind: KindText, Text: "Hello world, this is a test message"}
	got := EstimateTokens(msg)
	want := len(msg.Text)/CharsPerToken + 4
	if got != want {
		t.Errorf("EstimateTokens = %d, want %d", got, want)
	}
}

func TestEstimateTokens_ImageFlatCost(t *testing.T) {
	msg := Message{Kind: KindImage, ImageMIME: "image/png"}
	if got := EstimateTokens(msg); got != 300 {
		t.Errorf("EstimateTokens(image) = %d, want 300", got)
	}
}

func TestAlertFromRatio_Boundaries(t *testing.T) {
	tests := []struct {
		ratio float64
		want  TokenAlert
	}{
		{0.0, AlertNormal},
		{0.3, AlertNormal},
		{0.499, AlertNormal},
		{0.5, AlertWarning},
		{0.79, AlertWarning},
		{0.8, AlertCritical},
		{0.94, AlertCritical},
		{0.95, AlertOverflow},
		{1.0, AlertOverflow},
	}
	for _, tc := range tests {
		if got := AlertFromRatio(tc.ratio); got != tc.want {
			t.Errorf("AlertFromRatio(%v) = %v, want %v", tc.ratio, got, tc.want)
		}
	}
}

func TestAlertDisplay(t *testing.T) {
	if AlertNormal.String() != "OK" {
		t.Error("expected Normal to display OK")
	}
	if AlertOverflow.String() != "OVERFLOW" {
		t.Error("expected Overflow to display OVERFLOW")
	}
}

func TestShortTermWindow_BoundedByCapacity(t *testing.T) {
	w := NewShortTermWindow(3)
	for i := 0; i < 10; i++ {
		w.Push(Message{Kind: KindText, Text: "m"})
		if w.Len() > 3 {
			t.Fatalf("window exceeded capacity: len=%d", w.Len())
		}
	}
	if w.Len() != 3 {
		t.Errorf("Len() = %d, want 3", w.Len())
	}
}

func TestShortTermWindow_UnboundedWhenZeroCapacity(t *testing.T) {
	w := NewShortTermWindow(0)
	for i := 0; i < 50; i++ {
		w.Push(Message{Kind: KindText, Text: "m"})
	}
	if w.Len() != 50 {
		t.Errorf("Len() = %d, want 50", w.Len())
	}
}

func TestShouldSummarize(t *testing.T) {
	if ShouldSummarize(0.5, 0.8) {
		t.Error("expected false below threshold")
	}
	if !ShouldSummarize(0.85, 0.8) {
		t.Error("expected true above threshold")
	}
	if !ShouldSummarize(1.0, 0.8) {
		t.Error("expected true at overflow")
	}
}

func TestSummarizer_EmptyMessages(t *testing.T) {
	s := NewSummarizer(&stubProvider{answer: "unused"})
	summary, err := s.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.MessagesSummarized != 0 || summary.Text != "" {
		t.Errorf("expected zero-value summary, got %+v", summary)
	}
}

func TestSummarizer_BuildsPromptAndCallsProvider(t *testing.T) {
	s := NewSummarizer(&stubProvider{answer: "A concise summary."})
	messages := []Message{
		{Role: "user", Kind: KindText, Text: "Write a function"},
		{Role: "assistant", Kind: KindText, Text: "Here's the function..."},
	}
	summary, err := s.Summarize(context.Background(), messages)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.MessagesSummarized != 2 {
		t.Errorf("MessagesSummarized = %d, want 2", summary.MessagesSummarized)
	}
	if summary.Text != "A concise summary." {
		t.Errorf("Text = %q", summary.Text)
	}
}

func TestBuildSummarizationPrompt_ContainsRolesAndText(t *testing.T) {
	messages := []Message{
		{Role: "user", Kind: KindText, Text: "Hello"},
		{Role: "assistant", Kind: KindText, Text: "Hi there"},
	}
	prompt := buildSummarizationPrompt(messages)
	if !strings.Contains(prompt, "User: Hello") {
		t.Error("expected prompt to contain 'User: Hello'")
	}
	if !strings.Contains(prompt, "Assistant: Hi there") {
		t.Error("expected prompt to contain 'Assistant: Hi there'")
	}
	if !strings.Contains(prompt, "Summarize") {
		t.Error("expected prompt to contain summarization instruction")
	}
}

func TestSmartFallbackSummary_Empty(t *testing.T) {
	if got := SmartFallbackSummary(nil, 500); got != "" {
		t.Errorf("expected empty summary, got %q", got)
	}
}

func TestSmartFallbackSummary_PreservesToolNamesAndFirstMessage(t *testing.T) {
	messages := []Message{
		{Role: "user", Kind: KindText, Text: "fix the bug"},
		{Role: "assistant", Kind: KindToolCall, ToolName: "file_read", ToolArgs: `{"path":"src/main.go"}`},
		{Role: "tool", Kind: KindToolResult, ToolOut: "func main() {}"},
		{Role: "assistant", Kind: KindText, Text: "I found the issue."},
	}
	summary := SmartFallbackSummary(messages, 500)
	if !strings.Contains(summary, "file_read") {
		t.Errorf("expected summary to contain tool name, got %q", summary)
	}
	if !strings.Contains(summary, "fix the bug") {
		t.Errorf("expected summary to contain first message, got %q", summary)
	}
}

func TestSmartFallbackSummary_PreservesFirstAndLast(t *testing.T) {
	messages := []Message{
		{Role: "user", Kind: KindText, Text: "initial request about authentication"},
		{Role: "assistant", Kind: KindText, Text: "Let me look into that."},
		{Role: "user", Kind: KindText, Text: "follow up about tokens"},
		{Role: "assistant", Kind: KindText, Text: "Here is the solution for token handling"},
	}
	summary := SmartFallbackSummary(messages, 500)
	if !strings.Contains(summary, "initial request") {
		t.Errorf("expected first message preserved, got %q", summary)
	}
	if !strings.Contains(summary, "token handling") {
		t.Errorf("expected last message preserved, got %q", summary)
	}
}

func TestSmartFallbackSummary_RespectsLimit(t *testing.T) {
	longText := strings.Repeat("a", 1000)
	messages := []Message{{Role: "user", Kind: KindText, Text: longText}}

	summary := SmartFallbackSummary(messages, 100)
	if len(summary) > 110 {
		t.Errorf("summary len = %d, exceeds 110", len(summary))
	}
}

func TestSmartFallbackSummary_LargerLimitYieldsLongerSummary(t *testing.T) {
	messages := []Message{{Role: "user", Kind: KindText, Text: strings.Repeat("x", 1000)}}
	short := SmartFallbackSummary(messages, 50)
	long := SmartFallbackSummary(messages, 800)
	if len(short) > 60 {
		t.Errorf("short summary len = %d, want <= 60", len(short))
	}
	if len(long) > 810 {
		t.Errorf("long summary len = %d, want <= 810", len(long))
	}
	if len(long) <= len(short) {
		t.Errorf("expected long summary to be longer than short: %d <= %d", len(long), len(short))
	}
}

func TestNewCostDisplay_Format(t *testing.T) {
	d := NewCostDisplay(1000, 500, 128000, 0.0123)
	if d.TotalTokens != 1500 {
		t.Errorf("TotalTokens = %d, want 1500", d.TotalTokens)
	}
	formatted := d.Format()
	if !strings.Contains(formatted, "1000 in") {
		t.Errorf("formatted = %q, missing input tokens", formatted)
	}
	if !strings.Contains(formatted, "500 out") {
		t.Errorf("formatted = %q, missing output tokens", formatted)
	}
	if d.Alert != AlertNormal {
		t.Errorf("Alert = %v, want Normal", d.Alert)
	}
}

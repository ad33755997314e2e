package council

import (
	"context"
	"testing"

	"github.com/nexuscore/core/internal/agent/providers"
)

type stubProvider struct {
	name    string
	answer  string
	window  int
	inRate  float64
	outRate float64
	err     error
}

func (s *stubProvider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResult, error) {
	if s.err != nil {
		return providers.CompletionResult{}, s.err
	}
	return providers.CompletionResult{
		Message: providers.Message{Role: "assistant", Content: s.answer},
		Usage:   providers.TokenUsage{InputTokens: 10, OutputTokens: 20},
	}, nil
}
func (s *stubProvider) ContextWindow() int                 { return s.window }
func (s *stubProvider) CostPerToken() (float64, float64)   { return s.inRate, s.outRate }
func (s *stubProvider) Name() string                       { return s.name }

func TestCouncil_NoReviewPath(t *testing.T) {
	members := []Member{
		{ID: "m1", Provider: &stubProvider{name: "m1", answer: "Answer A", window: 100000}, MaxMemberTokens: 500},
		{ID: "m2", Provider: &stubProvider{name: "m2", answer: "Answer B", window: 50000}, MaxMemberTokens: 500},
	}
	c, err := New(members, "", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := c.Deliberate(context.Background(), "what should we build?", ChairmanSynthesis)
	if err != nil {
		t.Fatalf("Deliberate: %v", err)
	}

	if len(result.PeerReviews) != 0 {
		t.Errorf("expected no peer reviews with 2 members, got %d", len(result.PeerReviews))
	}
	if result.Synthesis == "" {
		t.Error("expected non-empty synthesis")
	}
	var wantCost float64
	for _, m := range members {
		in, out := m.Provider.CostPerToken()
		wantCost += 10*in + 20*out
	}
	if result.TotalCost != wantCost {
		t.Errorf("total cost = %v, want %v", result.TotalCost, wantCost)
	}
}

func TestCouncil_AllMembersFail(t *testing.T) {
	members := []Member{
		{ID: "m1", Provider: &stubProvider{name: "m1", err: errBoom}},
		{ID: "m2", Provider: &stubProvider{name: "m2", err: errBoom}},
	}
	c, _ := New(members, "", false)
	_, err := c.Deliberate(context.Background(), "q", ChairmanSynthesis)
	if err == nil {
		t.Fatal("expected error when all members fail")
	}
}

func TestCouncil_RequiresAtLeastTwoMembers(t *testing.T) {
	_, err := New([]Member{{ID: "solo"}}, "", false)
	if err == nil {
		t.Fatal("expected error for single-member council")
	}
}

func TestParsePeerReview(t *testing.T) {
	text := "SCORE: 13\nREASONING: solid approach\nSTRENGTHS:\n- clear\n- concise\nWEAKNESSES:\n- verbose"
	review := ParsePeerReview(text)
	if review.Score != 10 {
		t.Errorf("score not clamped: got %d", review.Score)
	}
	if review.Reasoning != "solid approach" {
		t.Errorf("reasoning = %q", review.Reasoning)
	}
	if len(review.Strengths) != 2 || len(review.Weaknesses) != 1 {
		t.Errorf("unexpected lists: %+v", review)
	}
}

func TestParsePeerReview_Unparseable(t *testing.T) {
	review := ParsePeerReview("not a valid format at all")
	if review.Score != 5 {
		t.Errorf("expected default score 5, got %d", review.Score)
	}
	if review.Reasoning != "" {
		t.Errorf("expected empty reasoning, got %q", review.Reasoning)
	}
}

func TestShouldUseCouncil(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"help me plan a migration strategy", true},
		{"fix the bug and commit", false},
		{"what approach should we take, then fix the failing test", false}, // concrete wins on tie
		{"compare microservices vs monolith", true},
	}
	for _, tc := range tests {
		if got := ShouldUseCouncil(tc.text); got != tc.want {
			t.Errorf("ShouldUseCouncil(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

var errBoom = &stubErr{"boom"}

type stubErr struct{ msg string }

func (e *stubErr) Error() string { return e.msg }

package routing

import "testing"

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestRouterDeterminism_CodeAnalysis(t *testing.T) {
	r := &ExpertRouter{TopK: 0}
	result := r.Select(TaskClassification{Kind: ClassCodeAnalysis}, "")

	if result.Expert != ExpertDevTools {
		t.Fatalf("expected DevTools, got %v", result.Expert)
	}
	for _, want := range []string{"ask_user", "file_read", "shell_exec", "scaffold", "test_runner", "lint"} {
		if !contains(result.Tools, want) {
			t.Errorf("expected tools to contain %q, got %v", want, result.Tools)
		}
	}
	if len(result.Tools) > 20 {
		t.Errorf("tool subset too large: %d", len(result.Tools))
	}
}

func TestRouter_SharedToolsAlwaysPresent(t *testing.T) {
	r := NewExpertRouter()
	for _, e := range AllExperts() {
		result := r.Select(TaskClassification{Kind: ClassGeneral}, "")
		_ = e
		for _, shared := range SharedTools() {
			if !contains(result.Tools, shared) {
				t.Fatalf("shared tool %q missing from result", shared)
			}
		}
		if len(result.Tools) > 20 {
			t.Fatalf("tools exceed 20: %d", len(result.Tools))
		}
	}
}

func TestRouter_UnrecognizedWorkflowFallsBackToFileOps(t *testing.T) {
	r := &ExpertRouter{}
	result := r.Select(TaskClassification{Kind: ClassWorkflow, Workflow: "totally_unknown_workflow"}, "")
	if result.Expert != ExpertFileOps {
		t.Fatalf("expected fallback to FileOps, got %v", result.Expert)
	}
}

func TestRouter_EmptyInputReturnsDefault(t *testing.T) {
	r := &ExpertRouter{}
	result := r.Select(TaskClassification{}, "")
	if result.Expert != ExpertFileOps {
		t.Fatalf("expected default FileOps for empty input, got %v", result.Expert)
	}
}

func TestApplyExclusions(t *testing.T) {
	prompt := "line one\nAppleScript support\n[core] Always respond in English\nanother line"
	out := ApplyExclusions(prompt, []string{"AppleScript"})
	if containsSubstring(out, "AppleScript support") {
		t.Fatalf("exclusion not applied: %s", out)
	}
	if !contains([]string{out}, out) {
		t.Fatal("sanity")
	}
	if !containsSubstring(out, "Always respond in English") {
		t.Errorf("core-marked line was stripped: %s", out)
	}
}

func TestExpertScore_Deterministic(t *testing.T) {
	text := "please train a new lora adapter and quantize the checkpoint"
	s1 := ExpertMLTrain.Score(text)
	s2 := ExpertMLTrain.Score(text)
	if s1 != s2 {
		t.Fatalf("score not deterministic: %v != %v", s1, s2)
	}
	if s1 <= 0.5 {
		t.Errorf("expected ML training text to score above neutral, got %v", s1)
	}
}

func TestTopKExperts_Length(t *testing.T) {
	ids := TopKExperts("fix the kubernetes deployment alert", 3)
	if len(ids) != 3 {
		t.Fatalf("expected 3 experts, got %d", len(ids))
	}
}

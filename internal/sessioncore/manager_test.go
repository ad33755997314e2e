package sessioncore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nexuscore/core/internal/memory/contextmem"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sessions")
	mgr, err := NewManagerWithDir(dir)
	if err != nil {
		t.Fatalf("NewManagerWithDir: %v", err)
	}
	return mgr
}

func TestStartSession_DefaultName(t *testing.T) {
	mgr := newTestManager(t)
	entry := mgr.StartSession("")
	if entry.Name == "" {
		t.Error("expected non-empty default name")
	}
	if entry.Completed {
		t.Error("expected new session to be incomplete")
	}
	if mgr.ActiveSessionID() == nil || *mgr.ActiveSessionID() != entry.ID {
		t.Error("expected active session to be set to new entry")
	}
}

func TestStartSession_WithName(t *testing.T) {
	mgr := newTestManager(t)
	entry := mgr.StartSession("refactor-auth")
	if entry.Name != "refactor-auth" {
		t.Errorf("Name = %q, want refactor-auth", entry.Name)
	}
}

func TestSaveCheckpoint_PersistsDataAndIndex(t *testing.T) {
	mgr := newTestManager(t)
	entry := mgr.StartSession("test-save")

	data := Data{
		Goal: "fix the bug",
		Messages: []contextmem.Message{
			{Role: "user", Kind: contextmem.KindText, Text: "fix bug #42"},
			{Role: "assistant", Kind: contextmem.KindText, Text: "Looking into it."},
		},
	}
	if err := mgr.SaveCheckpoint(data, 500); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	reloadedIdx, err := LoadIndex(mgr.SessionsDir())
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	saved := reloadedIdx.FindByID(entry.ID)
	if saved == nil {
		t.Fatal("expected entry to be found after save")
	}
	if saved.LastGoal != "fix the bug" {
		t.Errorf("LastGoal = %q", saved.LastGoal)
	}
	if saved.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", saved.MessageCount)
	}
	if saved.TotalTokens != 500 {
		t.Errorf("TotalTokens = %d, want 500", saved.TotalTokens)
	}
}

func TestResumeSession_ByExactName(t *testing.T) {
	mgr := newTestManager(t)
	mgr.StartSession("my-project")
	data := Data{
		Goal:     "implement feature X",
		Messages: []contextmem.Message{{Role: "user", Kind: contextmem.KindText, Text: "implement feature X"}},
	}
	if err := mgr.SaveCheckpoint(data, 200); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	mgr2, err := NewManagerWithDir(mgr.SessionsDir())
	if err != nil {
		t.Fatalf("NewManagerWithDir: %v", err)
	}
	loaded, continuation, err := mgr2.ResumeSession("my-project")
	if err != nil {
		t.Fatalf("ResumeSession: %v", err)
	}
	if loaded.Goal != "implement feature X" {
		t.Errorf("Goal = %q", loaded.Goal)
	}
	if !strings.Contains(continuation, "implement feature X") {
		t.Errorf("continuation missing goal: %q", continuation)
	}
	if !strings.Contains(continuation, "resuming a previous session") {
		t.Errorf("continuation missing standard preamble: %q", continuation)
	}
}

func TestResumeSession_ByPrefix(t *testing.T) {
	mgr := newTestManager(t)
	mgr.StartSession("long-project-name")
	data := Data{Messages: []contextmem.Message{{Role: "user", Kind: contextmem.KindText, Text: "hello"}}}
	if err := mgr.SaveCheckpoint(data, 100); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	mgr2, _ := NewManagerWithDir(mgr.SessionsDir())
	if _, _, err := mgr2.ResumeSession("long"); err != nil {
		t.Fatalf("ResumeSession by prefix: %v", err)
	}
}

func TestResumeLatest_PicksMostRecentlyUpdated(t *testing.T) {
	mgr := newTestManager(t)

	mgr.StartSession("old-session")
	if err := mgr.SaveCheckpoint(Data{Goal: "old task"}, 100); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	mgr.StartSession("new-session")
	if err := mgr.SaveCheckpoint(Data{Goal: "new task"}, 200); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	mgr2, _ := NewManagerWithDir(mgr.SessionsDir())
	loaded, _, err := mgr2.ResumeLatest()
	if err != nil {
		t.Fatalf("ResumeLatest: %v", err)
	}
	if loaded.Goal != "new task" {
		t.Errorf("Goal = %q, want 'new task'", loaded.Goal)
	}
}

func TestListSessions_RespectsLimit(t *testing.T) {
	mgr := newTestManager(t)
	for i := 0; i < 5; i++ {
		mgr.StartSession("")
		if err := mgr.SaveCheckpoint(Data{}, 10); err != nil {
			t.Fatalf("SaveCheckpoint: %v", err)
		}
	}
	sessions := mgr.ListSessions(3)
	if len(sessions) != 3 {
		t.Errorf("len(sessions) = %d, want 3", len(sessions))
	}
}

func TestRenameSession(t *testing.T) {
	mgr := newTestManager(t)
	mgr.StartSession("old-name")
	if err := mgr.RenameSession("old-name", "new-name"); err != nil {
		t.Fatalf("RenameSession: %v", err)
	}
	if entry := mgr.Index().FindByName("new-name"); entry == nil {
		t.Error("expected renamed entry to be findable by new name")
	}
}

func TestDeleteSession(t *testing.T) {
	mgr := newTestManager(t)
	mgr.StartSession("to-delete")
	name, err := mgr.DeleteSession("to-delete")
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if name != "to-delete" {
		t.Errorf("name = %q", name)
	}
	if len(mgr.Index().Entries) != 0 {
		t.Error("expected index to be empty after delete")
	}
}

func TestTagAndFilterByTag(t *testing.T) {
	mgr := newTestManager(t)
	mgr.StartSession("tagged-session")
	if err := mgr.TagSession("tagged-session", "urgent"); err != nil {
		t.Fatalf("TagSession: %v", err)
	}
	results := mgr.FilterByTag("urgent")
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
}

func TestSearch_EmptyQueryReturnsNothing(t *testing.T) {
	mgr := newTestManager(t)
	mgr.StartSession("anything")
	if results := mgr.Search("   "); results != nil {
		t.Errorf("expected nil for blank query, got %v", results)
	}
}

func TestSearch_MatchesGoalAndTags(t *testing.T) {
	mgr := newTestManager(t)
	mgr.StartSession("session-a")
	if err := mgr.SaveCheckpoint(Data{Goal: "refactor the auth module"}, 10); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	results := mgr.Search("auth")
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if err := mgr.TagSession("session-a", "backend"); err != nil {
		t.Fatalf("TagSession: %v", err)
	}
	if results := mgr.Search("backend"); len(results) != 1 {
		t.Fatalf("tag search len(results) = %d, want 1", len(results))
	}
}

func TestLoadIndex_MissingFileYieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	idx, err := LoadIndex(filepath.Join(dir, "nonexistent"))
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(idx.Entries) != 0 {
		t.Error("expected empty index for missing file")
	}
}

func TestLoadIndex_CorruptFileSurfacesError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, indexFileName)
	if err := os.WriteFile(path, []byte("not valid json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := LoadIndex(dir)
	if err == nil {
		t.Fatal("expected error for corrupt index file")
	}
	sessErr, ok := err.(*Error)
	if !ok || sessErr.Kind != KindSessionLoadFailed {
		t.Errorf("expected SessionLoadFailed, got %v", err)
	}
}

package smartedit

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestValidateWorkspacePath_AllowsRelativeInsidePath(t *testing.T) {
	dir := t.TempDir()
	resolved, err := ValidateWorkspacePath(dir, "src/main.go")
	if err != nil {
		t.Fatalf("ValidateWorkspacePath: %v", err)
	}
	if resolved != filepath.Join(dir, "src", "main.go") {
		t.Errorf("resolved = %q", resolved)
	}
}

func TestValidateWorkspacePath_RejectsParentEscape(t *testing.T) {
	dir := t.TempDir()
	_, err := ValidateWorkspacePath(dir, "../outside.go")
	if err == nil {
		t.Fatal("expected escape to be rejected")
	}
	if !errors.Is(err, ErrPathOutsideWorkspace) {
		t.Errorf("expected ErrPathOutsideWorkspace, got %v", err)
	}
}

func TestValidateWorkspacePath_RejectsDeepParentEscape(t *testing.T) {
	dir := t.TempDir()
	_, err := ValidateWorkspacePath(dir, "a/b/../../../outside.go")
	if !errors.Is(err, ErrPathOutsideWorkspace) {
		t.Errorf("expected ErrPathOutsideWorkspace, got %v", err)
	}
}

func TestValidateWorkspacePath_AllowsWorkspaceRootItself(t *testing.T) {
	dir := t.TempDir()
	resolved, err := ValidateWorkspacePath(dir, ".")
	if err != nil {
		t.Fatalf("ValidateWorkspacePath: %v", err)
	}
	if resolved != filepath.Clean(dir) {
		t.Errorf("resolved = %q, want %q", resolved, dir)
	}
}

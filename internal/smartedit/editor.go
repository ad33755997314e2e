package smartedit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Result is the outcome of a successful edit: the location that was
// matched, the unified diff of the change, and the checkpoint path (empty
// if the checkpoint failed or vcs was nil).
type Result struct {
	Location       LocationMatch
	Diff           string
	CheckpointPath string
}

// Editor resolves locations, applies edits, and writes files within a
// workspace, creating a non-fatal pre-edit checkpoint via vcs.
type Editor struct {
	workspace string
	vcs       VCS
	log       *slog.Logger
}

// NewEditor returns an Editor rooted at workspace. A nil vcs disables
// pre-edit checkpointing entirely (no attempt, no log line).
func NewEditor(workspace string, vcs VCS, log *slog.Logger) *Editor {
	if log == nil {
		log = slog.Default()
	}
	return &Editor{workspace: workspace, vcs: vcs, log: log.With("component", "smartedit")}
}

// Edit resolves location within the file at relPath (relative to the
// workspace), applies editType with newText, checkpoints the pre-edit
// content, writes the result, and returns the diff. newText may be empty
// for EditDelete.
func (e *Editor) Edit(relPath, location string, editType EditType, newText string) (Result, error) {
	if editType != EditDelete && newText == "" {
		return Result{}, fmt.Errorf("new_text is required for %s edits", editType)
	}

	absPath, err := ValidateWorkspacePath(e.workspace, relPath)
	if err != nil {
		return Result{}, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", relPath, err)
	}

	loc, err := FindLocation(string(content), location)
	if err != nil {
		return Result{}, err
	}

	newContent := ApplyEdit(string(content), loc, editType, newText)

	diff, err := GenerateDiff(relPath, string(content), newContent)
	if err != nil {
		return Result{}, err
	}

	var checkpointPath string
	if e.vcs != nil {
		cp, err := e.vcs.Checkpoint(absPath, fmt.Sprintf("before smart_edit on %s", relPath))
		if err != nil {
			e.log.Warn("checkpoint failed, continuing without one", "path", relPath, "error", err)
		} else {
			checkpointPath = cp
		}
	}

	if err := os.WriteFile(absPath, []byte(newContent), 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", relPath, err)
	}

	return Result{Location: loc, Diff: diff, CheckpointPath: checkpointPath}, nil
}

// EditFromArgs validates and decodes a tool call's raw JSON arguments, then
// applies the edit. This is the entrypoint for callers that receive
// arguments as an untyped tool-call payload rather than discrete fields.
func (e *Editor) EditFromArgs(raw json.RawMessage) (Result, error) {
	args, err := ParseArgs(raw)
	if err != nil {
		return Result{}, err
	}
	return e.Edit(args.Path, args.Location, args.EditType, args.NewText)
}

package smartedit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// VCS is the pre-edit checkpoint capability. A failed checkpoint is
// non-fatal to the edit itself; callers log it and proceed.
type VCS interface {
	// Checkpoint snapshots the current on-disk content of path and returns
	// an identifier for the snapshot (e.g. its storage path).
	Checkpoint(path, note string) (string, error)
}

// SnapshotVCS is a file-copy checkpoint: it writes a timestamped copy of
// the file being edited under <workspace>/.nexuscore/checkpoints/ before
// the edit overwrites it.
type SnapshotVCS struct {
	workspace string
}

// NewSnapshotVCS returns a SnapshotVCS rooted at workspace.
func NewSnapshotVCS(workspace string) *SnapshotVCS {
	return &SnapshotVCS{workspace: workspace}
}

// Checkpoint copies path's current content into the checkpoint directory,
// named by timestamp and the file's base name. note is recorded in a
// sidecar .meta file alongside the snapshot.
func (v *SnapshotVCS) Checkpoint(path, note string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s for checkpoint: %w", path, err)
	}

	checkpointDir := filepath.Join(v.workspace, ".nexuscore", "checkpoints")
	if err := os.MkdirAll(checkpointDir, 0o700); err != nil {
		return "", fmt.Errorf("creating checkpoint dir: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102-150405.000000000")
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp)
	snapshotPath := filepath.Join(checkpointDir, name)

	if err := os.WriteFile(snapshotPath, data, 0o600); err != nil {
		return "", fmt.Errorf("writing checkpoint: %w", err)
	}
	if note != "" {
		_ = os.WriteFile(snapshotPath+".meta", []byte(note), 0o600)
	}

	return snapshotPath, nil
}

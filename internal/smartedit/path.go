package smartedit

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathOutsideWorkspace is wrapped into the error returned by
// ValidateWorkspacePath when the resolved path would escape workspace.
var ErrPathOutsideWorkspace = errors.New("path is outside the workspace")

// ValidateWorkspacePath resolves pathStr against workspace and confirms the
// result stays within it after normalization, rejecting ".." escapes
// whether or not the target exists yet. It returns the resolved absolute
// path.
func ValidateWorkspacePath(workspace, pathStr string) (string, error) {
	workspaceAbs, err := filepath.Abs(workspace)
	if err != nil {
		return "", fmt.Errorf("resolving workspace root: %w", err)
	}

	var resolved string
	if filepath.IsAbs(pathStr) {
		resolved = filepath.Clean(pathStr)
	} else {
		resolved = filepath.Join(workspaceAbs, pathStr)
	}

	if resolved != workspaceAbs && !strings.HasPrefix(resolved, workspaceAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace: %w", pathStr, ErrPathOutsideWorkspace)
	}

	return resolved, nil
}

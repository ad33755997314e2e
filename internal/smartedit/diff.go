package smartedit

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// GenerateDiff renders a unified diff (3 lines of context) between old and
// new content, labeled with path under the conventional a/ b/ prefixes.
func GenerateDiff(path, oldContent, newContent string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("generating diff for %s: %w", path, err)
	}
	return out, nil
}

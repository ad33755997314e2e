package smartedit

import "strings"

// EditType is the kind of mutation applied at a resolved location.
type EditType string

const (
	EditReplace      EditType = "replace"
	EditInsertAfter  EditType = "insert_after"
	EditInsertBefore EditType = "insert_before"
	EditDelete       EditType = "delete"
)

// ParseEditType normalizes an edit_type argument, accepting both
// underscore and hyphen spellings and a "remove" alias for delete.
func ParseEditType(s string) (EditType, bool) {
	switch strings.ToLower(s) {
	case "replace":
		return EditReplace, true
	case "insert_after", "insert-after":
		return EditInsertAfter, true
	case "insert_before", "insert-before":
		return EditInsertBefore, true
	case "delete", "remove":
		return EditDelete, true
	default:
		return "", false
	}
}

// ApplyEdit applies editType at loc within content, returning the new
// content. newText is ignored for EditDelete.
func ApplyEdit(content string, loc LocationMatch, editType EditType, newText string) string {
	switch editType {
	case EditReplace:
		return content[:loc.Start] + newText + content[loc.End:]

	case EditInsertAfter:
		prefix := content[:loc.End]
		var sep string
		if !strings.HasPrefix(newText, "\n") && !strings.HasSuffix(prefix, "\n") {
			sep = "\n"
		}
		return prefix + sep + newText + content[loc.End:]

	case EditInsertBefore:
		suffix := content[loc.Start:]
		var sep string
		if !strings.HasSuffix(newText, "\n") && !strings.HasPrefix(suffix, "\n") {
			sep = "\n"
		}
		return content[:loc.Start] + newText + sep + suffix

	case EditDelete:
		return content[:loc.Start] + content[loc.End:]

	default:
		return content
	}
}

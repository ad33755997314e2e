package smartedit

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// argsSchemaJSON is the JSON Schema for an edit tool call's arguments;
// compiledArgsSchema compiles it once on first use.
const argsSchemaJSON = `{
  "type": "object",
  "required": ["path", "location", "edit_type"],
  "properties": {
    "path": { "type": "string", "minLength": 1 },
    "location": { "type": "string", "minLength": 1 },
    "edit_type": { "type": "string", "enum": ["replace", "insert_after", "insert_before", "delete", "remove"] },
    "new_text": { "type": "string" }
  }
}`

var (
	argsSchemaOnce    sync.Once
	argsSchemaCompile *jsonschema.Schema
	argsSchemaErr     error
)

func compiledArgsSchema() (*jsonschema.Schema, error) {
	argsSchemaOnce.Do(func() {
		argsSchemaCompile, argsSchemaErr = jsonschema.CompileString("smartedit_args", argsSchemaJSON)
	})
	return argsSchemaCompile, argsSchemaErr
}

// Args is a validated edit tool call: {path, location, edit_type, new_text?}.
type Args struct {
	Path     string
	Location string
	EditType EditType
	NewText  string
}

// ParseArgs validates raw against the edit tool's JSON Schema and decodes it
// into an Args. Schema validation runs first so malformed tool calls are
// rejected before touching the filesystem.
func ParseArgs(raw json.RawMessage) (Args, error) {
	schema, err := compiledArgsSchema()
	if err != nil {
		return Args{}, fmt.Errorf("smartedit: compile args schema: %w", err)
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Args{}, fmt.Errorf("smartedit: decode args: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return Args{}, fmt.Errorf("smartedit: invalid args: %w", err)
	}

	var decoded struct {
		Path     string `json:"path"`
		Location string `json:"location"`
		EditType string `json:"edit_type"`
		NewText  string `json:"new_text"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Args{}, fmt.Errorf("smartedit: decode args: %w", err)
	}

	editType, ok := ParseEditType(decoded.EditType)
	if !ok {
		return Args{}, fmt.Errorf("smartedit: unknown edit_type %q", decoded.EditType)
	}

	return Args{Path: decoded.Path, Location: decoded.Location, EditType: editType, NewText: decoded.NewText}, nil
}

package sessioncore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/nexuscore/core/internal/memory/contextmem"
)

// Data is the full persisted state of one session: its working goal and
// the messages accumulated so far.
type Data struct {
	Goal      string               `json:"goal,omitempty"`
	Messages  []contextmem.Message `json:"messages"`
	SavedAt   time.Time            `json:"saved_at"`
}

// SaveData writes a session's data file atomically.
func SaveData(path string, data Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return persistenceErrorf("creating session directory: %v", err)
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return persistenceErrorf("serializing session data: %v", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0600); err != nil {
		return persistenceErrorf("writing session data: %v", err)
	}
	return os.Rename(tmp, path)
}

// LoadData reads and parses a session's data file. A missing or
// unparseable file surfaces as SessionLoadFailed — callers must not
// treat a corrupt session file as an empty one.
func LoadData(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, sessionLoadFailedf("reading session data %s: %v", path, err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, sessionLoadFailedf("parsing session data %s: %v", path, err)
	}
	return data, nil
}

// Package sessioncore provides file-backed, resumable agent sessions: a
// JSON index of session metadata plus one JSON data file per session,
// written atomically via temp-file-then-rename.
package sessioncore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one session's metadata as tracked in the index.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastGoal    string    `json:"last_goal,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	MessageCount int      `json:"message_count"`
	TotalTokens int       `json:"total_tokens"`
	Completed   bool      `json:"completed"`
	FileName    string    `json:"file_name"`
	Tags        []string  `json:"tags,omitempty"`
	ProjectType string    `json:"project_type,omitempty"`
}

// Index is the session index persisted as index.json in the sessions
// directory.
type Index struct {
	Entries []*Entry `json:"entries"`
}

const indexFileName = "index.json"

// LoadIndex reads the index from sessionsDir. A missing file is not an
// error — it yields an empty index, matching a workspace with no
// sessions yet. A file that exists but fails to parse surfaces as a
// SessionLoadFailed error rather than silently resetting to empty: a
// corrupt index is evidence of prior sessions whose metadata would
// otherwise be lost without a trace.
func LoadIndex(sessionsDir string) (*Index, error) {
	path := filepath.Join(sessionsDir, indexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{}, nil
		}
		return nil, persistenceErrorf("reading session index: %v", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, sessionLoadFailedf("parsing session index %s: %v", path, err)
	}
	return &idx, nil
}

// Save writes the index to sessionsDir atomically (temp file + rename).
func (idx *Index) Save(sessionsDir string) error {
	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return persistenceErrorf("creating sessions directory: %v", err)
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return persistenceErrorf("serializing session index: %v", err)
	}

	path := filepath.Join(sessionsDir, indexFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return persistenceErrorf("writing session index: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return persistenceErrorf("renaming session index into place: %v", err)
	}
	return nil
}

// FindByName looks up an entry by case-insensitive exact match first,
// then case-insensitive prefix match.
func (idx *Index) FindByName(query string) *Entry {
	lower := strings.ToLower(query)
	for _, e := range idx.Entries {
		if strings.ToLower(e.Name) == lower {
			return e
		}
	}
	for _, e := range idx.Entries {
		if strings.HasPrefix(strings.ToLower(e.Name), lower) {
			return e
		}
	}
	return nil
}

// FindByID looks up an entry by exact ID match.
func (idx *Index) FindByID(id uuid.UUID) *Entry {
	for _, e := range idx.Entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// FindByQuery resolves query as a UUID first, falling back to
// FindByName when it doesn't parse as one.
func (idx *Index) FindByQuery(query string) *Entry {
	if id, err := uuid.Parse(query); err == nil {
		return idx.FindByID(id)
	}
	return idx.FindByName(query)
}

// MostRecent returns the entry with the latest UpdatedAt, or nil if the
// index is empty.
func (idx *Index) MostRecent() *Entry {
	var best *Entry
	for _, e := range idx.Entries {
		if best == nil || e.UpdatedAt.After(best.UpdatedAt) {
			best = e
		}
	}
	return best
}

// ListRecent returns up to limit entries sorted by UpdatedAt descending.
func (idx *Index) ListRecent(limit int) []*Entry {
	entries := make([]*Entry, len(idx.Entries))
	copy(entries, idx.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Search matches query (case-insensitive substring) against name, last
// goal, summary, and tags. An empty/whitespace query matches nothing.
func (idx *Index) Search(query string) []*Entry {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	lower := strings.ToLower(query)
	var results []*Entry
	for _, e := range idx.Entries {
		if strings.Contains(strings.ToLower(e.Name), lower) ||
			strings.Contains(strings.ToLower(e.LastGoal), lower) ||
			strings.Contains(strings.ToLower(e.Summary), lower) ||
			containsTagSubstring(e.Tags, lower) {
			results = append(results, e)
		}
	}
	return results
}

func containsTagSubstring(tags []string, lower string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), lower) {
			return true
		}
	}
	return false
}

// FilterByTag returns entries carrying an exact (case-insensitive) tag
// match.
func (idx *Index) FilterByTag(tag string) []*Entry {
	lower := strings.ToLower(tag)
	var results []*Entry
	for _, e := range idx.Entries {
		for _, t := range e.Tags {
			if strings.ToLower(t) == lower {
				results = append(results, e)
				break
			}
		}
	}
	return results
}

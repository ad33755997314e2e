package sessioncore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexuscore/core/internal/observability"
)

// Manager manages session persistence, indexing, and resume for one
// workspace's sessions directory.
type Manager struct {
	sessionsDir     string
	index           *Index
	activeSessionID *uuid.UUID

	// Metrics is optional; a nil value disables checkpoint counting.
	Metrics *observability.Metrics
}

// NewManager opens (or creates) the session store under
// workspace/.nexuscore/sessions.
func NewManager(workspace string) (*Manager, error) {
	return NewManagerWithDir(filepath.Join(workspace, ".nexuscore", "sessions"))
}

// NewManagerWithDir opens (or creates) the session store at an explicit
// directory.
func NewManagerWithDir(sessionsDir string) (*Manager, error) {
	idx, err := LoadIndex(sessionsDir)
	if err != nil {
		return nil, err
	}
	return &Manager{sessionsDir: sessionsDir, index: idx}, nil
}

// SessionsDir returns the backing directory.
func (m *Manager) SessionsDir() string { return m.sessionsDir }

// Index exposes the underlying index for read-only inspection.
func (m *Manager) Index() *Index { return m.index }

// ActiveSessionID returns the currently active session ID, if any.
func (m *Manager) ActiveSessionID() *uuid.UUID { return m.activeSessionID }

// StartSession creates and indexes a new session. An empty name
// defaults to a timestamp in "2006-01-02_150405" form.
func (m *Manager) StartSession(name string) *Entry {
	id := uuid.New()
	now := time.Now().UTC()
	if name == "" {
		name = now.Format("2006-01-02_150405")
	}

	entry := &Entry{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		FileName:  fmt.Sprintf("%s.json", id),
	}

	m.index.Entries = append(m.index.Entries, entry)
	m.activeSessionID = &id
	_ = m.index.Save(m.sessionsDir) // best-effort, matches start_session's non-fatal save

	return entry
}

// SaveCheckpoint persists data as the active session's current state and
// updates its index entry (goal, message count, token total, timestamp).
func (m *Manager) SaveCheckpoint(data Data, totalTokens int) error {
	if m.activeSessionID == nil {
		return persistenceErrorf("no active session to save")
	}

	entry := m.index.FindByID(*m.activeSessionID)
	if entry == nil {
		return persistenceErrorf("active session not found in index")
	}

	entry.UpdatedAt = time.Now().UTC()
	entry.LastGoal = data.Goal
	entry.MessageCount = len(data.Messages)
	entry.TotalTokens = totalTokens

	data.SavedAt = entry.UpdatedAt
	sessionPath := filepath.Join(m.sessionsDir, entry.FileName)
	if err := SaveData(sessionPath, data); err != nil {
		m.recordCheckpoint("error")
		return err
	}

	err := m.index.Save(m.sessionsDir)
	if err != nil {
		m.recordCheckpoint("error")
	} else {
		m.recordCheckpoint("success")
	}
	return err
}

func (m *Manager) recordCheckpoint(result string) {
	if m.Metrics != nil {
		m.Metrics.SessionCheckpoints.WithLabelValues(result).Inc()
	}
}

// CompleteSession marks the active session completed with an optional
// summary.
func (m *Manager) CompleteSession(summary string) error {
	if m.activeSessionID == nil {
		return nil
	}
	entry := m.index.FindByID(*m.activeSessionID)
	if entry == nil {
		return nil
	}
	entry.Completed = true
	entry.UpdatedAt = time.Now().UTC()
	entry.Summary = summary
	return m.index.Save(m.sessionsDir)
}

// ResumeSession loads a session by ID or name and returns its data plus
// a continuation prompt describing what was accomplished.
func (m *Manager) ResumeSession(query string) (Data, string, error) {
	entry := m.index.FindByQuery(query)
	if entry == nil {
		return Data{}, "", sessionLoadFailedf("no session found matching: '%s'", query)
	}

	sessionPath := filepath.Join(m.sessionsDir, entry.FileName)
	data, err := LoadData(sessionPath)
	if err != nil {
		return Data{}, "", err
	}

	continuation := buildContinuationPrompt(entry)
	m.activeSessionID = &entry.ID

	return data, continuation, nil
}

// ResumeLatest resumes the most recently updated session.
func (m *Manager) ResumeLatest() (Data, string, error) {
	entry := m.index.MostRecent()
	if entry == nil {
		return Data{}, "", sessionLoadFailedf("no sessions found to resume")
	}
	return m.ResumeSession(entry.ID.String())
}

func buildContinuationPrompt(entry *Entry) string {
	var b strings.Builder
	b.WriteString("You are resuming a previous session. Here is what was accomplished:\n")
	if entry.LastGoal != "" {
		fmt.Fprintf(&b, "- Last goal: %s\n", entry.LastGoal)
	}
	if entry.Summary != "" {
		fmt.Fprintf(&b, "- Summary: %s\n", entry.Summary)
	}
	fmt.Fprintf(&b, "- Messages exchanged: %d\n", entry.MessageCount)
	fmt.Fprintf(&b, "- Session started: %s\n", entry.CreatedAt.Format("2006-01-02 15:04 UTC"))
	if entry.Completed {
		b.WriteString("- Status: Completed\n")
	} else {
		b.WriteString("- Status: In progress (was interrupted)\n")
	}
	b.WriteString("\nContinue from where the session left off.")
	return b.String()
}

// ListSessions returns up to limit sessions, most recently updated first.
func (m *Manager) ListSessions(limit int) []*Entry {
	return m.index.ListRecent(limit)
}

// RenameSession renames the session matching query.
func (m *Manager) RenameSession(query, newName string) error {
	entry := m.index.FindByQuery(query)
	if entry == nil {
		return sessionLoadFailedf("no session found matching: '%s'", query)
	}
	entry.Name = newName
	return m.index.Save(m.sessionsDir)
}

// DeleteSession removes a session's data file and index entry, returning
// its name.
func (m *Manager) DeleteSession(query string) (string, error) {
	var idx = -1
	var entry *Entry
	for i, e := range m.index.Entries {
		if matchesQuery(e, query) {
			idx = i
			entry = e
			break
		}
	}
	if entry == nil {
		return "", sessionLoadFailedf("no session found matching: '%s'", query)
	}

	sessionPath := filepath.Join(m.sessionsDir, entry.FileName)
	if _, err := os.Stat(sessionPath); err == nil {
		_ = os.Remove(sessionPath)
	}

	m.index.Entries = append(m.index.Entries[:idx], m.index.Entries[idx+1:]...)
	if err := m.index.Save(m.sessionsDir); err != nil {
		return "", err
	}

	return entry.Name, nil
}

func matchesQuery(e *Entry, query string) bool {
	if id, err := uuid.Parse(query); err == nil {
		return e.ID == id
	}
	lower := strings.ToLower(query)
	nameLower := strings.ToLower(e.Name)
	return nameLower == lower || strings.HasPrefix(nameLower, lower)
}

// TagSession adds tag to the session matching query, if not already
// present.
func (m *Manager) TagSession(query, tag string) error {
	entry := m.index.FindByQuery(query)
	if entry == nil {
		return sessionLoadFailedf("no session found matching: '%s'", query)
	}
	for _, t := range entry.Tags {
		if t == tag {
			return m.index.Save(m.sessionsDir)
		}
	}
	entry.Tags = append(entry.Tags, tag)
	return m.index.Save(m.sessionsDir)
}

// Search delegates to the index's substring search over name, goal,
// summary, and tags.
func (m *Manager) Search(query string) []*Entry {
	return m.index.Search(query)
}

// FilterByTag delegates to the index's exact-tag filter.
func (m *Manager) FilterByTag(tag string) []*Entry {
	return m.index.FilterByTag(tag)
}

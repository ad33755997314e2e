// Package statemachine provides transition validation and history
// tracking shared by the alert and deployment lifecycle state machines.
package statemachine

import (
	"fmt"
	"time"
)

// TransitionError reports a rejected or unknown state transition.
type TransitionError struct {
	Kind string // "not_found" or "invalid_transition"
	From string
	To   string
	ID   string
}

func (e *TransitionError) Error() string {
	switch e.Kind {
	case "not_found":
		return fmt.Sprintf("not found: %s", e.ID)
	default:
		return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
	}
}

// NotFound builds a TransitionError for a missing record.
func NotFound(id string) error {
	return &TransitionError{Kind: "not_found", ID: id}
}

// InvalidTransition builds a TransitionError for a rejected transition.
func InvalidTransition(from, to string) error {
	return &TransitionError{Kind: "invalid_transition", From: from, To: to}
}

// HistoryEntry records one accepted transition.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from_status"`
	To        string    `json:"to_status"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note,omitempty"`
}

// Table maps a status to the set of statuses it may transition to.
type Table map[string][]string

// Validate reports whether to is a legal transition target from, per
// table. Transitioning a status to itself is never legal unless the
// table explicitly lists it.
func (t Table) Validate(from, to string) error {
	for _, allowed := range t[from] {
		if allowed == to {
			return nil
		}
	}
	return InvalidTransition(from, to)
}

// Record builds a history entry for an accepted from->to transition
// performed by actor, stamping the current time.
func Record(from, to, actor, note string) HistoryEntry {
	return HistoryEntry{
		Timestamp: time.Now().UTC(),
		From:      from,
		To:        to,
		Actor:     actor,
		Note:      note,
	}
}

// Package alerts implements the alert lifecycle: a finite state machine
// with transition validation and history, correlation grouping, and
// priority scoring.
package alerts

import (
	"time"

	"github.com/nexuscore/core/internal/statemachine"
)

// Status is an alert's position in its lifecycle.
type Status string

const (
	StatusNew           Status = "new"
	StatusAcknowledged  Status = "acknowledged"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusClosed        Status = "closed"
	StatusFalsePositive Status = "false_positive"
)

// transitions is the alert FSM's transition table. New can be marked a
// false positive directly, as can Acknowledged and Investigating; a
// Resolved alert can be reopened to Investigating before it is Closed.
var transitions = statemachine.Table{
	string(StatusNew):           {string(StatusAcknowledged), string(StatusFalsePositive)},
	string(StatusAcknowledged):  {string(StatusInvestigating), string(StatusFalsePositive)},
	string(StatusInvestigating): {string(StatusResolved), string(StatusFalsePositive)},
	string(StatusResolved):      {string(StatusClosed), string(StatusInvestigating)},
	string(StatusClosed):        {},
	string(StatusFalsePositive): {},
}

// Priority ranks an alert's urgency, P0 highest.
type Priority string

const (
	P0 Priority = "P0"
	P1 Priority = "P1"
	P2 Priority = "P2"
	P3 Priority = "P3"
	P4 Priority = "P4"
)

// priorityWeight is the severity_weight(P0=10..P4=1) term of the
// priority score formula.
var priorityWeight = map[Priority]float64{
	P0: 10,
	P1: 8,
	P2: 6,
	P3: 3,
	P4: 1,
}

// Alert is a single alert instance, tracked from creation through
// closure.
type Alert struct {
	ID          int                         `json:"id"`
	Title       string                      `json:"title"`
	Description string                      `json:"description"`
	Status      Status                      `json:"status"`
	Priority    Priority                    `json:"priority"`
	SourceIDs   []string                    `json:"source_ids,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	Assignee    string                      `json:"assignee,omitempty"`
	History     []statemachine.HistoryEntry `json:"history"`
	Tags        []string                    `json:"tags,omitempty"`
	Metadata    map[string]string           `json:"metadata,omitempty"`
}

// AgeHours returns how many hours old the alert is as of now.
func (a *Alert) AgeHours(now time.Time) float64 {
	return now.Sub(a.CreatedAt).Hours()
}

// PriorityScore computes severity_weight(priority) * 1/(1+age_hours/24)
// * (1 + 0.5*|source_ids|).
func (a *Alert) PriorityScore(now time.Time) float64 {
	weight, ok := priorityWeight[a.Priority]
	if !ok {
		weight = priorityWeight[P4]
	}
	ageFactor := 1 / (1 + a.AgeHours(now)/24)
	sourceFactor := 1 + 0.5*float64(len(a.SourceIDs))
	return weight * ageFactor * sourceFactor
}

// Transition validates and applies a status change, appending a history
// entry and bumping UpdatedAt. An invalid transition leaves the alert
// unchanged and returns a *statemachine.TransitionError.
func (a *Alert) Transition(to Status, actor, note string) error {
	if err := transitions.Validate(string(a.Status), string(to)); err != nil {
		return err
	}
	entry := statemachine.Record(string(a.Status), string(to), actor, note)
	a.Status = to
	a.UpdatedAt = entry.Timestamp
	a.History = append(a.History, entry)
	return nil
}

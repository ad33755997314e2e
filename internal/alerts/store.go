package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/nexuscore/core/internal/statemachine"
)

// state is the persisted shape of the alert store.
type state struct {
	Alerts []*Alert `json:"alerts"`
	NextID int      `json:"next_id"`
}

// Store manages alert persistence at <workspace>/.nexuscore/alerts/state.json.
type Store struct {
	path  string
	state state
}

// NewStore opens (or creates) the alert store for workspace.
func NewStore(workspace string) (*Store, error) {
	path := filepath.Join(workspace, ".nexuscore", "alerts", "state.json")
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = state{}
			return nil
		}
		return fmt.Errorf("reading alert state: %w", err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parsing alert state: %w", err)
	}
	s.state = st
	return nil
}

func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating alert state dir: %w", err)
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing alert state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing alert state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Create adds a new alert in StatusNew and persists the store.
func (s *Store) Create(title, description, source string, priority Priority, sourceIDs []string) (*Alert, error) {
	now := time.Now().UTC()
	alert := &Alert{
		ID:          s.state.NextID,
		Title:       title,
		Description: description,
		Status:      StatusNew,
		Priority:    priority,
		SourceIDs:   sourceIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    map[string]string{"source": source},
	}
	s.state.NextID++
	s.state.Alerts = append(s.state.Alerts, alert)
	if err := s.save(); err != nil {
		return nil, err
	}
	return alert, nil
}

// Find returns the alert with the given id, or nil.
func (s *Store) Find(id int) *Alert {
	for _, a := range s.state.Alerts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// List returns alerts, optionally filtered by status.
func (s *Store) List(status Status) []*Alert {
	if status == "" {
		return append([]*Alert(nil), s.state.Alerts...)
	}
	var out []*Alert
	for _, a := range s.state.Alerts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

// Transition applies a validated status change to the alert matching id
// and persists the store.
func (s *Store) Transition(id int, to Status, actor, note string) error {
	alert := s.Find(id)
	if alert == nil {
		return statemachine.NotFound(strconv.Itoa(id))
	}
	if err := alert.Transition(to, actor, note); err != nil {
		return err
	}
	return s.save()
}

// Assign sets the alert's assignee.
func (s *Store) Assign(id int, assignee string) error {
	alert := s.Find(id)
	if alert == nil {
		return statemachine.NotFound(strconv.Itoa(id))
	}
	alert.Assignee = assignee
	alert.UpdatedAt = time.Now().UTC()
	return s.save()
}

// Tag adds tag to the alert if not already present.
func (s *Store) Tag(id int, tag string) error {
	alert := s.Find(id)
	if alert == nil {
		return statemachine.NotFound(strconv.Itoa(id))
	}
	for _, t := range alert.Tags {
		if t == tag {
			return nil
		}
	}
	alert.Tags = append(alert.Tags, tag)
	alert.UpdatedAt = time.Now().UTC()
	return s.save()
}

// History returns resolved-or-later alerts, most recent first, capped
// at limit (0 means unlimited).
func (s *Store) History(limit int) []*Alert {
	var out []*Alert
	for i := len(s.state.Alerts) - 1; i >= 0; i-- {
		a := s.state.Alerts[i]
		if a.Status == StatusResolved || a.Status == StatusClosed {
			out = append(out, a)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// CorrelationGroup is a set of alerts judged related by one criterion.
type CorrelationGroup struct {
	Criterion string `json:"criterion"` // "source_id", "time_window", or "tag"
	Key       string `json:"key"`
	AlertIDs  []int  `json:"alert_ids"`
}

// Correlate groups currently-open alerts (New, Acknowledged, or
// Investigating) by shared source id, by a temporal window (windowSecs,
// default 600 if <= 0), and by shared tag. A source-id or tag group
// requires at least 2 sharing alerts.
func (s *Store) Correlate(windowSecs int) []CorrelationGroup {
	if windowSecs <= 0 {
		windowSecs = 600
	}
	var open []*Alert
	for _, a := range s.state.Alerts {
		switch a.Status {
		case StatusNew, StatusAcknowledged, StatusInvestigating:
			open = append(open, a)
		}
	}

	var groups []CorrelationGroup

	bySource := map[string][]int{}
	for _, a := range open {
		for _, src := range a.SourceIDs {
			bySource[src] = append(bySource[src], a.ID)
		}
	}
	for src, ids := range bySource {
		if len(ids) >= 2 {
			groups = append(groups, CorrelationGroup{Criterion: "source_id", Key: src, AlertIDs: ids})
		}
	}

	byTag := map[string][]int{}
	for _, a := range open {
		for _, tag := range a.Tags {
			byTag[tag] = append(byTag[tag], a.ID)
		}
	}
	for tag, ids := range byTag {
		if len(ids) >= 2 {
			groups = append(groups, CorrelationGroup{Criterion: "tag", Key: tag, AlertIDs: ids})
		}
	}

	sorted := append([]*Alert(nil), open...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	window := time.Duration(windowSecs) * time.Second
	var windowIDs []int
	var windowStart time.Time
	for i, a := range sorted {
		if i == 0 {
			windowStart = a.CreatedAt
			windowIDs = []int{a.ID}
			continue
		}
		if a.CreatedAt.Sub(windowStart) <= window {
			windowIDs = append(windowIDs, a.ID)
			continue
		}
		if len(windowIDs) >= 2 {
			groups = append(groups, CorrelationGroup{
				Criterion: "time_window",
				Key:       fmt.Sprintf("%s/%ds", windowStart.Format(time.RFC3339), windowSecs),
				AlertIDs:  windowIDs,
			})
		}
		windowStart = a.CreatedAt
		windowIDs = []int{a.ID}
	}
	if len(windowIDs) >= 2 {
		groups = append(groups, CorrelationGroup{
			Criterion: "time_window",
			Key:       fmt.Sprintf("%s/%ds", windowStart.Format(time.RFC3339), windowSecs),
			AlertIDs:  windowIDs,
		})
	}

	return groups
}

package deployments

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nexuscore/core/internal/statemachine"
)

// state is the persisted shape of the deployment store.
type state struct {
	Deployments   []*Record      `json:"deployments"`
	NextID        int            `json:"next_id"`
	ChangeWindows []ChangeWindow `json:"change_windows"`
}

// Store manages deployment persistence at
// <workspace>/.nexuscore/deployments/state.json.
type Store struct {
	path  string
	state state
}

// NewStore opens (or creates) the deployment store for workspace.
func NewStore(workspace string) (*Store, error) {
	path := filepath.Join(workspace, ".nexuscore", "deployments", "state.json")
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
		return fmt.Errorf("reading deployment state: %w", err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parsing deployment state: %w", err)
	}
	s.state = st
	return nil
}

func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating deployment state dir: %w", err)
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing deployment state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing deployment state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Find returns the deployment with the given id, or nil.
func (s *Store) Find(id int) *Record {
	for _, d := range s.state.Deployments {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// recentDeploys returns up to 5 most recent deployments for service,
// most recent first.
func (s *Store) recentDeploys(service string) []*Record {
	var matches []*Record
	for i := len(s.state.Deployments) - 1; i >= 0; i-- {
		d := s.state.Deployments[i]
		if d.Service == service {
			matches = append(matches, d)
			if len(matches) == 5 {
				break
			}
		}
	}
	return matches
}

// assessRiskFactors mirrors the original heuristic: recent
// failures/rollbacks, a major version bump, off-hours deploys
// (outside 09:00-17:00 UTC), and Friday/weekend deploys. An empty
// result falls back to a flat baseline factor.
func assessRiskFactors(service, version string, recent []*Record, now time.Time) []RiskFactor {
	var factors []RiskFactor

	failures := 0
	for _, d := range recent {
		if d.Status == StatusFailed || d.Status == StatusRolledBack {
			failures++
		}
	}
	if failures > 0 {
		score := float64(failures) * 0.3
		if score > 1 {
			score = 1
		}
		factors = append(factors, RiskFactor{
			Name:        "recent_failures",
			Score:       score,
			Weight:      weightRecentFailures,
			Explanation: fmt.Sprintf("%d recent failures/rollbacks for %s", failures, service),
		})
	}

	if len(recent) > 0 && recent[0].Version != "" {
		prevMajor := strings.SplitN(recent[0].Version, ".", 2)[0]
		newMajor := strings.SplitN(version, ".", 2)[0]
		if prevMajor != newMajor {
			factors = append(factors, RiskFactor{
				Name:        "major_version_change",
				Score:       0.6,
				Weight:      weightMajorVersionBump,
				Explanation: fmt.Sprintf("Major version change: %s -> %s", recent[0].Version, version),
			})
		}
	}

	hour := now.UTC().Hour()
	if hour < 9 || hour >= 17 {
		factors = append(factors, RiskFactor{
			Name:        "off_hours",
			Score:       0.4,
			Weight:      weightOffHours,
			Explanation: fmt.Sprintf("Deployment at %02d:00 UTC (outside 09:00-17:00 window)", hour),
		})
	}

	weekday := int(now.UTC().Weekday()) // Sunday=0..Saturday=6
	daysFromMonday := (weekday + 6) % 7 // Monday=0..Sunday=6
	if daysFromMonday >= 4 {
		factors = append(factors, RiskFactor{
			Name:        "weekend_deploy",
			Score:       0.5,
			Weight:      weightWeekendDeploy,
			Explanation: "Deployment on Friday or weekend",
		})
	}

	if len(factors) == 0 {
		factors = append(factors, RiskFactor{
			Name:        "baseline",
			Score:       0.1,
			Weight:      weightBaseline,
			Explanation: fmt.Sprintf("Baseline deployment risk for %s v%s", service, version),
		})
	}

	return factors
}

// AssessRisk records a new deployment for service/version, scoring its
// risk against recent history, and returns the record.
func (s *Store) AssessRisk(service, version string) (*Record, error) {
	now := time.Now().UTC()
	recent := s.recentDeploys(service)
	factors := assessRiskFactors(service, version, recent, now)
	score := computeRiskScore(factors)

	var previousVersion string
	if len(recent) > 0 {
		previousVersion = recent[0].Version
	}

	record := &Record{
		ID:              s.state.NextID,
		Service:         service,
		Version:         version,
		PreviousVersion: previousVersion,
		RiskScore:       score,
		RiskFactors:     factors,
		Status:          StatusPlanned,
		StartedAt:       now,
	}
	s.state.NextID++
	s.state.Deployments = append(s.state.Deployments, record)
	if err := s.save(); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateCanary merges provided metric fields into the deployment's
// canary metrics, recomputes success criteria, and marks it Canary.
func (s *Store) UpdateCanary(id int, traffic, errorRate, latencyP99 *float64) (*Record, error) {
	record := s.Find(id)
	if record == nil {
		return nil, statemachine.NotFound(strconv.Itoa(id))
	}
	if record.CanaryMetrics == nil {
		record.CanaryMetrics = &CanaryMetrics{}
	}
	m := record.CanaryMetrics
	if traffic != nil {
		m.TrafficPercent = *traffic
	}
	if errorRate != nil {
		m.ErrorRate = *errorRate
	}
	if latencyP99 != nil {
		m.LatencyP99Ms = *latencyP99
	}
	m.SuccessCriteriaMet = canarySuccess(*m)
	record.Status = StatusCanary
	if err := s.save(); err != nil {
		return nil, err
	}
	return record, nil
}

// PostDeployVerify promotes the deployment if its canary metrics meet
// success criteria, appends an optional note, and returns the record.
func (s *Store) PostDeployVerify(id int, note string) (*Record, error) {
	record := s.Find(id)
	if record == nil {
		return nil, statemachine.NotFound(strconv.Itoa(id))
	}
	ok := record.CanaryMetrics != nil && record.CanaryMetrics.SuccessCriteriaMet
	if ok {
		record.Status = StatusPromoted
		now := time.Now().UTC()
		record.CompletedAt = &now
	}
	if note != "" {
		record.Notes = append(record.Notes, note)
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return record, nil
}

// Timeline returns up to limit deployments (optionally filtered by
// service), most recent first.
func (s *Store) Timeline(service string, limit int) []*Record {
	var out []*Record
	for i := len(s.state.Deployments) - 1; i >= 0; i-- {
		d := s.state.Deployments[i]
		if service != "" && d.Service != service {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// DiffAnalysis compares the two most recent deployments of service,
// returning (current, previous, riskDelta, ok). ok is false if fewer
// than two deployments exist for service.
func (s *Store) DiffAnalysis(service string) (current, previous *Record, riskDelta float64, ok bool) {
	deploys := s.Timeline(service, 2)
	if len(deploys) < 2 {
		return nil, nil, 0, false
	}
	return deploys[0], deploys[1], deploys[0].RiskScore - deploys[1].RiskScore, true
}

// AddChangeWindow registers a new change window.
func (s *Store) AddChangeWindow(w ChangeWindow) error {
	s.state.ChangeWindows = append(s.state.ChangeWindows, w)
	return s.save()
}

// ChangeWindows returns the registered change windows.
func (s *Store) ChangeWindows() []ChangeWindow {
	return append([]ChangeWindow(nil), s.state.ChangeWindows...)
}

// InChangeWindow reports whether now falls within any registered
// change window.
func (s *Store) InChangeWindow(now time.Time) bool {
	for _, w := range s.state.ChangeWindows {
		if w.Contains(now) {
			return true
		}
	}
	return false
}

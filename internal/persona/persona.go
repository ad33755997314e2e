// Package persona resolves which behavioral profile should modulate a
// given task: prompt addendum, tool preferences, and a confidence nudge.
package persona

import (
	"math"
	"strings"

	"github.com/nexuscore/core/internal/agent/routing"
)

// ID identifies a persona profile.
type ID string

const (
	Architect        ID = "architect"
	SecurityGuardian ID = "security_guardian"
	MlopsEngineer    ID = "mlops_engineer"
	General          ID = "general"
)

// DisplayName returns the human-readable context label for a persona.
func (id ID) DisplayName() string {
	switch id {
	case Architect:
		return "AI Systems Architect"
	case SecurityGuardian:
		return "Security Guardian"
	case MlopsEngineer:
		return "MLOps Engineer"
	default:
		return "General"
	}
}

// ParseID parses a free-form string into a persona ID.
func ParseID(s string) (ID, bool) {
	switch strings.ToLower(s) {
	case "architect", "arch":
		return Architect, true
	case "security", "sec", "security_guardian", "guardian":
		return SecurityGuardian, true
	case "mlops", "mlops_engineer", "lifecycle":
		return MlopsEngineer, true
	case "general", "none", "default":
		return General, true
	default:
		return "", false
	}
}

// Profile is a complete persona profile with behavioral modifiers.
type Profile struct {
	ID                  ID
	SystemPromptAddendum string
	PreferredTools       []string
	DeprioritizedTools   []string
	ConfidenceModifier   float32 // clamped to [-0.2, +0.2]
	SafetyModeOverride   string
	ContextLabel         string
}

var builtinProfiles = map[ID]Profile{
	Architect: {
		ID: Architect,
		SystemPromptAddendum: "You are operating as an AI Systems Architect. Prioritize inference optimization, hardware-aware reasoning, latency analysis, and performance benchmarks. When reviewing code, focus on computational efficiency, memory layout, and parallelism. Prefer profiling tools and code analysis tools.",
		PreferredTools:     []string{"codebase_search", "code_intelligence", "file_read", "smart_edit"},
		DeprioritizedTools: []string{"macos_gui_scripting"},
		ConfidenceModifier: 0.1,
		ContextLabel:       "AI Systems Architect",
	},
	SecurityGuardian: {
		ID: SecurityGuardian,
		SystemPromptAddendum: "You are operating as a Security & Governance Guardian. Prioritize safety validation, injection detection, compliance checking, and red team analysis. Apply extra scrutiny to shell commands, network operations, and file writes. Prefer cautious tool usage and audit-heavy workflows.",
		PreferredTools:     []string{"codebase_search", "file_read", "privacy_manager"},
		DeprioritizedTools: []string{"shell_exec", "macos_gui_scripting"},
		ConfidenceModifier: -0.1,
		SafetyModeOverride: "cautious",
		ContextLabel:       "Security Guardian",
	},
	MlopsEngineer: {
		ID: MlopsEngineer,
		SystemPromptAddendum: "You are operating as an MLOps & Autonomous Lifecycle Engineer. Prioritize self-adaptation, feedback loops, evaluation metrics, and error analysis. Focus on reproducibility, experiment tracking, and systematic improvement. Prefer experiment_tracker and system_monitor tools.",
		PreferredTools:     []string{"experiment_tracker", "system_monitor", "shell_exec", "code_intelligence"},
		ConfidenceModifier: 0.05,
		ContextLabel:       "MLOps Engineer",
	},
	General: {
		ID:           General,
		ContextLabel: "General",
	},
}

// ProfileFor looks up a built-in profile by ID.
func ProfileFor(id ID) (Profile, bool) {
	p, ok := builtinProfiles[id]
	return p, ok
}

// Resolver resolves which persona to use for a given task, following the
// deterministic chain: manual override > configured default > auto-detect
// > General fallback.
type Resolver struct {
	override        *ID
	defaultPersona  *ID
	autoDetect      bool
}

// NewResolver constructs a Resolver. defaultPersona and autoDetect mirror
// a loaded PersonaConfig.
func NewResolver(defaultPersona *ID, autoDetect bool) *Resolver {
	return &Resolver{defaultPersona: defaultPersona, autoDetect: autoDetect}
}

// SetOverride sets (or clears, with nil) a manual override persona.
func (r *Resolver) SetOverride(id *ID) {
	r.override = id
}

// CurrentOverride returns the current override, if any.
func (r *Resolver) CurrentOverride() *ID {
	return r.override
}

// ActivePersona resolves the active persona for the given classification.
func (r *Resolver) ActivePersona(classification *routing.TaskClassification) ID {
	if r.override != nil {
		return *r.override
	}
	if r.defaultPersona != nil {
		return *r.defaultPersona
	}
	if r.autoDetect && classification != nil {
		return resolveFromClassification(*classification)
	}
	return General
}

func resolveFromClassification(c routing.TaskClassification) ID {
	switch c.Kind {
	case routing.ClassCodeAnalysis, routing.ClassCodeIntel, routing.ClassGitOperation, routing.ClassArxivResearch:
		return Architect
	case routing.ClassWorkflow:
		switch c.Workflow {
		case "security_scan", "privacy_audit", "dependency_audit":
			return SecurityGuardian
		case "deployment", "incident_response":
			return MlopsEngineer
		case "code_review", "refactor", "test_generation", "documentation":
			return Architect
		default:
			return General
		}
	case routing.ClassSystemMonitor, routing.ClassSelfImprovement, routing.ClassExperimentTrack:
		return MlopsEngineer
	case routing.ClassPrivacyManager:
		return SecurityGuardian
	default:
		return General
	}
}

// deny-list of injection markers. Any case-insensitive substring match
// invalidates an addendum.
var injectionMarkers = []string{
	"ignore previous instructions",
	"ignore all instructions",
	"disregard previous",
	"forget your instructions",
	"new instructions:",
	"system prompt:",
	"you are now",
	"override safety",
	"disable safety",
	"bypass security",
	"execute arbitrary",
	"<script>",
	"```bash\nrm ",
	"```bash\ncurl ",
}

const maxAddendumLength = 2000

// ValidateAddendum reports whether addendum passes injection-marker and
// length checks.
func ValidateAddendum(addendum string) bool {
	if addendum == "" {
		return true
	}
	if len(addendum) > maxAddendumLength {
		return false
	}
	lower := strings.ToLower(addendum)
	for _, marker := range injectionMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// PromptAddendum returns the validated system prompt addendum for the
// active persona. An addendum that fails validation is replaced with the
// empty string; callers should log a warning in that case (ValidateAddendum
// is exported precisely so callers can distinguish the two cases).
func (r *Resolver) PromptAddendum(classification *routing.TaskClassification) string {
	active := r.ActivePersona(classification)
	profile, ok := ProfileFor(active)
	if !ok {
		return ""
	}
	if !ValidateAddendum(profile.SystemPromptAddendum) {
		return ""
	}
	return profile.SystemPromptAddendum
}

// AvailablePersonas lists every built-in persona ID.
func AvailablePersonas() []ID {
	return []ID{Architect, SecurityGuardian, MlopsEngineer, General}
}

// Metrics tracks EMA-smoothed per-persona performance.
type Metrics struct {
	TasksCompleted uint64
	SuccessRate    float32
	AvgIterations  float32
}

const emaAlpha = 0.1

// RecordTask folds one more task outcome into m using an EMA with
// α=0.1. NaN/Inf response rates recover to 0.5 before the EMA step.
func (m *Metrics) RecordTask(success bool, iterations int) {
	rate := m.SuccessRate
	if math.IsNaN(float64(rate)) || math.IsInf(float64(rate), 0) {
		rate = 0.5
	}
	var observed float32
	if success {
		observed = 1.0
	}

	if m.TasksCompleted == 0 {
		m.SuccessRate = observed
		m.AvgIterations = float32(iterations)
	} else {
		m.SuccessRate = rate*(1-emaAlpha) + observed*emaAlpha
		m.AvgIterations = m.AvgIterations*(1-emaAlpha) + float32(iterations)*emaAlpha
	}
	m.TasksCompleted++

	if m.SuccessRate < 0 {
		m.SuccessRate = 0
	}
	if m.SuccessRate > 1 {
		m.SuccessRate = 1
	}
}

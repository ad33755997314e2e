package routing

import "strings"

// RouteResult is the Expert Router's contract output: an expert id, the
// tool subset to advertise, a system-prompt exclusion list, and an
// expert-specific prompt addendum.
type RouteResult struct {
	Expert     ExpertID
	Tools      []string
	Exclusions []string
	Addendum   string
}

// ExpertRouter resolves a TaskClassification (and optional free-text task)
// to a RouteResult. The router is stateless with respect to a request and
// cannot fail: malformed or empty input resolves to the FileOps default.
type ExpertRouter struct {
	// TopK controls how many experts contribute tools to the fan-out
	// superset when free text is supplied. Zero or negative disables
	// fan-out and only the classification-mapped expert is used.
	TopK int
}

// NewExpertRouter returns a router with the spec's default Top-3 fan-out.
func NewExpertRouter() *ExpertRouter {
	return &ExpertRouter{TopK: 3}
}

// Select implements the §4.B contract.
func (r *ExpertRouter) Select(c TaskClassification, taskText string) RouteResult {
	primary := ExpertForClassification(c)

	experts := []ExpertID{primary}
	if r.TopK > 1 && strings.TrimSpace(taskText) != "" {
		for _, id := range TopKExperts(taskText, r.TopK) {
			if !containsExpert(experts, id) {
				experts = append(experts, id)
			}
		}
	}

	tools := mergeToolSubset(experts)
	return RouteResult{
		Expert:     primary,
		Tools:      tools,
		Exclusions: primary.SystemPromptExclusions(),
		Addendum:   primary.SystemPromptAddendum(),
	}
}

func mergeToolSubset(experts []ExpertID) []string {
	seen := map[string]bool{}
	tools := make([]string, 0, 20)
	for _, t := range SharedTools() {
		if !seen[t] {
			seen[t] = true
			tools = append(tools, t)
		}
	}
	for _, id := range experts {
		for _, t := range id.DomainTools() {
			if seen[t] {
				continue
			}
			if len(tools) >= 20 {
				return tools
			}
			seen[t] = true
			tools = append(tools, t)
		}
	}
	if len(tools) > 20 {
		tools = tools[:20]
	}
	return tools
}

func containsExpert(list []ExpertID, id ExpertID) bool {
	for _, e := range list {
		if e == id {
			return true
		}
	}
	return false
}

// ApplyExclusions strips non-core lines from a full system prompt whose
// text contains any of the given exclusion keywords. A line is "core" and
// never stripped when it starts with the coreMarker prefix (callers tag
// instructions that must never be dropped this way).
const coreMarker = "[core] "

func ApplyExclusions(systemPrompt string, exclusions []string) string {
	if len(exclusions) == 0 {
		return systemPrompt
	}
	lines := strings.Split(systemPrompt, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, coreMarker) {
			out = append(out, strings.TrimPrefix(line, coreMarker))
			continue
		}
		if lineMatchesAny(line, exclusions) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func lineMatchesAny(line string, keywords []string) bool {
	lower := toLowerASCII(line)
	for _, kw := range keywords {
		if containsSubstring(lower, toLowerASCII(kw)) {
			return true
		}
	}
	return false
}

package retrieval

import (
	"strings"

	"github.com/scrypster/continuity/pkg/types"
)

// relevanceGateMinSignals is the minimum number of fired signals a
// candidate needs to survive the relevance gate (spec §4.2).
const relevanceGateMinSignals = 2

// PassesPreFilter applies the binary pre-filter exclusions from spec §4.2:
// status, exclusion flags, scope mismatch, anti-triggers, and session dedup.
func PassesPreFilter(m *types.Memory, currentProjectID, message string, alreadyInjected map[string]bool) bool {
	if m.Status != types.StatusActive || m.ExcludeFromRetrieval || m.SupersededBy != "" {
		return false
	}
	if m.Scope == types.ScopeProject && m.ProjectID != currentProjectID {
		return false
	}
	lowerMsg := strings.ToLower(message)
	for _, anti := range m.AntiTriggers {
		if anti == "" {
			continue
		}
		if strings.Contains(lowerMsg, strings.ToLower(anti)) {
			return false
		}
	}
	if alreadyInjected[m.ID] {
		return false
	}
	return true
}

// PassesRelevanceGate reports whether a candidate's signal count clears the
// minimum required for further consideration.
func PassesRelevanceGate(s Signals) bool {
	return s.Count >= relevanceGateMinSignals
}

// contextTypeKeywords is the keyword table from spec §4.2's importance
// ranking bonus: "the user message contains a keyword associated with the
// memory's context_type".
var contextTypeKeywords = map[types.ContextType][]string{
	types.ContextDebug:        {"debug", "bug", "error", "fix", "issue", "problem", "broken"},
	types.ContextDecision:     {"decide", "decision", "choose", "choice", "option", "should"},
	types.ContextArchitecture: {"architect", "design", "structure", "pattern", "how"},
	types.ContextBreakthrough: {"insight", "realize", "understand", "discover", "why"},
	types.ContextTechnical:    {"implement", "code", "function", "method", "api"},
	types.ContextWorkflow:     {"process", "workflow", "step", "flow", "pipeline"},
	types.ContextPhilosophy:   {"philosophy", "principle", "belief", "approach", "think"},
}

// problemKeywords backs the problem_solution_pair bonus.
var problemKeywords = []string{"error", "bug", "issue", "problem", "wrong", "fail", "broken", "help", "stuck"}

func messageContainsAny(lowerMsg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerMsg, kw) {
			return true
		}
	}
	return false
}

// ImportanceScore computes the additive importance score from spec §4.2.
func ImportanceScore(m *types.Memory, message string, s Signals) float64 {
	lowerMsg := strings.ToLower(message)

	score := m.ImportanceWeight
	if score == 0 {
		score = 0.5
	}

	switch {
	case s.Count >= 4:
		score += 0.20
	case s.Count >= 3:
		score += 0.10
	}

	if m.AwaitingImplementation {
		score += 0.15
	}
	if m.AwaitingDecision {
		score += 0.10
	}

	if keywords, ok := contextTypeKeywords[m.ContextType]; ok && messageContainsAny(lowerMsg, keywords) {
		score += 0.10
	}

	if m.ProblemSolutionPair && messageContainsAny(lowerMsg, problemKeywords) {
		score += 0.10
	}

	switch m.TemporalClass {
	case types.TemporalEternal:
		score += 0.10
	case types.TemporalLongTerm:
		score += 0.05
	case types.TemporalEphemeral:
		if m.SessionsSinceSurfaced <= 1 {
			score += 0.10
		}
	}

	if m.ConfidenceScore != 0 && m.ConfidenceScore < 0.5 {
		score -= 0.10
	}

	return score
}

// Package types defines the core data structures for the continuity memory
// system: memories, sessions, and the enums that classify them.
package types

import "strings"

// ContextType classifies the nature of a memory. The set is closed — the
// 170+ free-form values seen in earlier corpora are canonicalized down to
// these eleven at ingestion (see internal/migration).
type ContextType string

const (
	ContextTechnical    ContextType = "technical"
	ContextDebug        ContextType = "debug"
	ContextArchitecture ContextType = "architecture"
	ContextDecision     ContextType = "decision"
	ContextPersonal     ContextType = "personal"
	ContextPhilosophy   ContextType = "philosophy"
	ContextWorkflow     ContextType = "workflow"
	ContextMilestone    ContextType = "milestone"
	ContextBreakthrough ContextType = "breakthrough"
	ContextUnresolved   ContextType = "unresolved"
	ContextState        ContextType = "state"
)

// ValidContextTypes lists every canonical context type.
var ValidContextTypes = []ContextType{
	ContextTechnical, ContextDebug, ContextArchitecture, ContextDecision,
	ContextPersonal, ContextPhilosophy, ContextWorkflow, ContextMilestone,
	ContextBreakthrough, ContextUnresolved, ContextState,
}

// IsValidContextType reports whether ct is one of the eleven canonical types.
func IsValidContextType(ct ContextType) bool {
	for _, v := range ValidContextTypes {
		if v == ct {
			return true
		}
	}
	return false
}

// CanonicalContextType maps an arbitrary (possibly legacy/free-form) string to
// a canonical ContextType. Exact matches win; otherwise a substring/keyword
// fallback is tried; otherwise it falls back to ContextTechnical (never
// rejected outright — see migration's "lossless fallback" requirement).
func CanonicalContextType(raw string) ContextType {
	if ct := ContextType(raw); IsValidContextType(ct) {
		return ct
	}
	return fuzzyContextType(raw)
}

// Scope indicates whether a memory is shared across all projects or scoped
// to a single one.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// GlobalProjectID is the sentinel project identifier for global-scope memories.
const GlobalProjectID = "global"

// TemporalClass governs decay behavior: how long a memory stays relevant
// without being resurfaced.
type TemporalClass string

const (
	TemporalEternal    TemporalClass = "eternal"
	TemporalLongTerm   TemporalClass = "long_term"
	TemporalMediumTerm TemporalClass = "medium_term"
	TemporalShortTerm  TemporalClass = "short_term"
	TemporalEphemeral  TemporalClass = "ephemeral"
)

var ValidTemporalClasses = []TemporalClass{
	TemporalEternal, TemporalLongTerm, TemporalMediumTerm, TemporalShortTerm, TemporalEphemeral,
}

func IsValidTemporalClass(tc TemporalClass) bool {
	for _, v := range ValidTemporalClasses {
		if v == tc {
			return true
		}
	}
	return false
}

// Status is the lifecycle status of a memory. Transitions are governed
// exclusively by internal/lifecycle.Manager; see IsValidStatusTransition.
type Status string

const (
	StatusActive     Status = "active"
	StatusPending    Status = "pending"
	StatusSuperseded Status = "superseded"
	StatusDeprecated Status = "deprecated"
	StatusArchived   Status = "archived"
)

var ValidStatuses = []Status{
	StatusActive, StatusPending, StatusSuperseded, StatusDeprecated, StatusArchived,
}

func IsValidStatus(s Status) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidStatusTransition implements the memory lifecycle state machine from
// spec §3/§4.3:
//
//	active     -> pending | superseded | deprecated | archived
//	pending    -> active | superseded
//	deprecated -> archived
//	superseded -> (terminal)
//	archived   -> (terminal)
//
// Grounded on pkg/types.IsValidStateTransition in the teacher corpus, adapted
// to this system's five-state machine.
func IsValidStatusTransition(from, to Status) bool {
	if to == "" {
		return false
	}
	switch from {
	case StatusActive:
		return to == StatusPending || to == StatusSuperseded || to == StatusDeprecated || to == StatusArchived
	case StatusPending:
		return to == StatusActive || to == StatusSuperseded
	case StatusDeprecated:
		return to == StatusArchived
	case StatusSuperseded, StatusArchived:
		return false
	default:
		// Empty/unknown "from" is treated as a fresh memory: curator output
		// always starts active (spec §3 "memory is born active").
		return to == StatusActive
	}
}

// fuzzyContextType applies keyword-based fallback matching for legacy or
// free-form context_type values seen pre-migration.
func fuzzyContextType(raw string) ContextType {
	lower := strings.ToLower(raw)
	keywordTable := []struct {
		ct       ContextType
		keywords []string
	}{
		{ContextDebug, []string{"debug", "bug", "error", "fix", "issue", "broken"}},
		{ContextDecision, []string{"decide", "decision", "choice", "choose", "option"}},
		{ContextArchitecture, []string{"architect", "design", "structure", "pattern"}},
		{ContextBreakthrough, []string{"insight", "realize", "discover", "breakthrough"}},
		{ContextWorkflow, []string{"process", "workflow", "pipeline", "step"}},
		{ContextPhilosophy, []string{"philosophy", "principle", "belief"}},
		{ContextMilestone, []string{"milestone", "shipped", "launched", "release"}},
		{ContextUnresolved, []string{"unresolved", "todo", "pending", "open"}},
		{ContextState, []string{"state", "status", "snapshot"}},
		{ContextPersonal, []string{"personal", "family", "relationship"}},
	}
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.ct
			}
		}
	}
	return ContextTechnical
}

package migration

import "github.com/scrypster/continuity/pkg/types"

// builtinContextTypeAliases maps common legacy/free-form context_type strings
// seen in pre-migration corpora straight to a canonical type, tried before
// types.CanonicalContextType's exact-then-fuzzy matching. Grounded on the
// teacher's system-defaults table in internal/services/settings_service.go
// (a fixed built-in mapping, overridable by a caller-supplied overlay).
var builtinContextTypeAliases = map[string]types.ContextType{
	"bug":            types.ContextDebug,
	"bugfix":         types.ContextDebug,
	"fix":            types.ContextDebug,
	"error_handling": types.ContextDebug,
	"arch":           types.ContextArchitecture,
	"architecture":   types.ContextArchitecture,
	"design":         types.ContextArchitecture,
	"decision":       types.ContextDecision,
	"choice":         types.ContextDecision,
	"todo":           types.ContextUnresolved,
	"open_question":  types.ContextUnresolved,
	"blocked":        types.ContextUnresolved,
	"insight":        types.ContextBreakthrough,
	"realization":    types.ContextBreakthrough,
	"process":        types.ContextWorkflow,
	"workflow":       types.ContextWorkflow,
	"principle":      types.ContextPhilosophy,
	"values":         types.ContextPhilosophy,
	"shipped":        types.ContextMilestone,
	"release":        types.ContextMilestone,
	"snapshot":       types.ContextState,
	"status":         types.ContextState,
	"preference":     types.ContextPersonal,
	"relationship":   types.ContextPersonal,
}

// remapContextType resolves raw to a canonical ContextType: an exact match
// against overlay wins first (spec §4.5 "custom remap tables overlay the
// built-in table when supplied"), then the built-in alias table, then
// types.CanonicalContextType's own exact-or-fuzzy matching.
func remapContextType(raw string, overlay map[string]types.ContextType) types.ContextType {
	if overlay != nil {
		if ct, ok := overlay[raw]; ok {
			return ct
		}
	}
	if ct, ok := builtinContextTypeAliases[raw]; ok {
		return ct
	}
	return types.CanonicalContextType(raw)
}

// legacyTemporalRelevanceToClass maps the retired temporal_relevance field's
// values (spec §4.5) to the current temporal_class values. Any value not in
// this table is left for ApplyDefaults to fill from the context_type default.
var legacyTemporalRelevanceToClass = map[string]types.TemporalClass{
	"permanent":    types.TemporalEternal,
	"forever":      types.TemporalEternal,
	"long":         types.TemporalLongTerm,
	"long_lived":   types.TemporalLongTerm,
	"medium":       types.TemporalMediumTerm,
	"short":        types.TemporalShortTerm,
	"short_lived":  types.TemporalShortTerm,
	"transient":    types.TemporalEphemeral,
	"session_only": types.TemporalEphemeral,
}

// obsoleteFrontmatterKeys are legacy keys spec §4.5 requires dropped. Most
// have no corresponding types.Memory field, so store.DecodeMemory's typed
// yaml.Unmarshal already discards them. No code reads this list; it records
// in one place the full set spec §4.5 names.
var obsoleteFrontmatterKeys = []string{
	"emotional_resonance",
	"knowledge_domain",
	"component",
	"parent_id",
	"child_ids",
	"temporal_relevance",
	"prerequisite",
	"follow_up",
	"dependency",
}

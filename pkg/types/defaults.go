package types

// TypeDefaults carries the per-context-type defaults applied to a memory at
// creation time when the curator omits them (spec invariant 6: "every
// context_type has a default temporal_class and fade_rate; the defaults
// table is a constant part of the design, not inferred at runtime").
type TypeDefaults struct {
	TemporalClass TemporalClass
	FadeRate      float64
	Scope         Scope
}

// defaultsByContextType is the built-in defaults table. Curator output may
// override any field explicitly; this table only fills gaps.
//
// Grounded on the teacher's system-defaults-table-with-custom-overlay idiom
// in internal/services/settings_service.go, applied here to context_type
// instead of entity/relationship schema customization.
var defaultsByContextType = map[ContextType]TypeDefaults{
	ContextTechnical:    {TemporalClass: TemporalMediumTerm, FadeRate: 0.05, Scope: ScopeProject},
	ContextDebug:        {TemporalClass: TemporalShortTerm, FadeRate: 0.1, Scope: ScopeProject},
	ContextArchitecture: {TemporalClass: TemporalLongTerm, FadeRate: 0.02, Scope: ScopeProject},
	ContextDecision:     {TemporalClass: TemporalLongTerm, FadeRate: 0.03, Scope: ScopeProject},
	ContextPersonal:     {TemporalClass: TemporalEternal, FadeRate: 0.0, Scope: ScopeGlobal},
	ContextPhilosophy:   {TemporalClass: TemporalEternal, FadeRate: 0.0, Scope: ScopeGlobal},
	ContextWorkflow:     {TemporalClass: TemporalLongTerm, FadeRate: 0.02, Scope: ScopeGlobal},
	ContextMilestone:    {TemporalClass: TemporalEternal, FadeRate: 0.0, Scope: ScopeProject},
	ContextBreakthrough: {TemporalClass: TemporalEternal, FadeRate: 0.0, Scope: ScopeProject},
	ContextUnresolved:   {TemporalClass: TemporalShortTerm, FadeRate: 0.1, Scope: ScopeProject},
	ContextState:        {TemporalClass: TemporalEphemeral, FadeRate: 0.2, Scope: ScopeProject},
}

// DefaultsForContextType returns the built-in defaults for ct, falling back
// to the technical defaults if ct is somehow not canonical (callers should
// have already run it through CanonicalContextType).
func DefaultsForContextType(ct ContextType) TypeDefaults {
	if d, ok := defaultsByContextType[ct]; ok {
		return d
	}
	return defaultsByContextType[ContextTechnical]
}

// ApplyDefaults fills in TemporalClass, FadeRate, RetrievalWeight and Scope
// on m when they are unset, using the defaults table keyed by m.ContextType.
// ProjectID is left untouched: a global-scope default never overrides an
// explicit project_id supplied by the curator (invariant 5 takes priority
// over invariant 6).
func ApplyDefaults(m *Memory) {
	d := DefaultsForContextType(m.ContextType)
	if m.TemporalClass == "" {
		m.TemporalClass = d.TemporalClass
	}
	if m.FadeRate == 0 && d.FadeRate != 0 {
		m.FadeRate = d.FadeRate
	}
	if m.Scope == "" {
		m.Scope = d.Scope
	}
	if m.RetrievalWeight == 0 {
		m.RetrievalWeight = m.ImportanceWeight
	}
	if m.SchemaVersion == 0 {
		m.SchemaVersion = CurrentSchemaVersion
	}
}

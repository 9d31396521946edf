package retrieval

import (
	"sort"

	"github.com/scrypster/continuity/pkg/types"
)

// Options tunes the two-tier selection cap. Zero values are replaced with
// the spec §4.2 defaults by Evaluate.
type Options struct {
	MaxGlobal int // default 2
	MaxTotal  int // default 7 (5 project + 2 global)
}

func (o Options) withDefaults() Options {
	if o.MaxGlobal <= 0 {
		o.MaxGlobal = 2
	}
	if o.MaxTotal <= 0 {
		o.MaxTotal = 7
	}
	return o
}

// globalPriority orders context types for the global-selection re-sort
// (spec §4.2's priority table). Types not enumerated by the spec's example
// table (debug, milestone, unresolved, state) are assigned priorities after
// the named ones, in rough order of how urgent a cross-project memory of
// that type typically is — see DESIGN.md for this Open Question resolution.
var globalPriority = map[types.ContextType]int{
	types.ContextTechnical:    1,
	types.ContextDebug:        2,
	types.ContextArchitecture: 3,
	types.ContextWorkflow:     4,
	types.ContextDecision:     5,
	types.ContextBreakthrough: 6,
	types.ContextPhilosophy:   7,
	types.ContextPersonal:     8,
	types.ContextMilestone:    9,
	types.ContextUnresolved:   10,
	types.ContextState:        11,
}

func priorityOf(ct types.ContextType) int {
	if p, ok := globalPriority[ct]; ok {
		return p
	}
	return len(globalPriority) + 1
}

// Candidate is a single memory paired with its computed signals and
// importance score, ready for ordering and selection.
type Candidate struct {
	Memory     *types.Memory
	Signals    Signals
	Importance float64
}

// Select implements spec §4.2's "Ordering & selection": initial sort,
// global/project partition, global re-sort and cap, project fill up to
// max_total, and related-memory backfill. passing must already have
// cleared the pre-filter and relevance gate.
func Select(passing []Candidate, opts Options) (selected []Candidate, backfilledIDs []string) {
	opts = opts.withDefaults()

	sort.SliceStable(passing, func(i, j int) bool {
		if passing[i].Signals.Count != passing[j].Signals.Count {
			return passing[i].Signals.Count > passing[j].Signals.Count
		}
		return passing[i].Importance > passing[j].Importance
	})

	var globals, projects []Candidate
	for _, c := range passing {
		if c.Memory.Scope == types.ScopeGlobal {
			globals = append(globals, c)
		} else {
			projects = append(projects, c)
		}
	}

	sort.SliceStable(globals, func(i, j int) bool {
		pi, pj := priorityOf(globals[i].Memory.ContextType), priorityOf(globals[j].Memory.ContextType)
		if pi != pj {
			return pi < pj // lower number = higher priority
		}
		if globals[i].Signals.Count != globals[j].Signals.Count {
			return globals[i].Signals.Count > globals[j].Signals.Count
		}
		return globals[i].Importance > globals[j].Importance
	})
	if len(globals) > opts.MaxGlobal {
		globals = globals[:opts.MaxGlobal]
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Memory.ActionRequired != projects[j].Memory.ActionRequired {
			return projects[i].Memory.ActionRequired // true sorts first
		}
		if projects[i].Signals.Count != projects[j].Signals.Count {
			return projects[i].Signals.Count > projects[j].Signals.Count
		}
		return projects[i].Importance > projects[j].Importance
	})

	selected = make([]Candidate, 0, opts.MaxTotal)
	selectedIDs := make(map[string]bool)
	for _, c := range globals {
		if len(selected) >= opts.MaxTotal {
			break
		}
		selected = append(selected, c)
		selectedIDs[c.Memory.ID] = true
	}
	for _, c := range projects {
		if len(selected) >= opts.MaxTotal {
			break
		}
		if selectedIDs[c.Memory.ID] {
			continue
		}
		selected = append(selected, c)
		selectedIDs[c.Memory.ID] = true
	}

	if len(selected) < opts.MaxTotal {
		related := make(map[string]bool)
		for _, c := range selected {
			for _, id := range c.Memory.RelatedTo {
				related[id] = true
			}
		}
		if len(related) > 0 {
			for _, c := range passing {
				if len(selected) >= opts.MaxTotal {
					break
				}
				if selectedIDs[c.Memory.ID] {
					continue
				}
				if related[c.Memory.ID] {
					selected = append(selected, c)
					selectedIDs[c.Memory.ID] = true
					backfilledIDs = append(backfilledIDs, c.Memory.ID)
				}
			}
		}
	}

	return selected, backfilledIDs
}

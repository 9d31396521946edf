package retrieval

import "github.com/scrypster/continuity/pkg/types"

// Request bundles everything Evaluate needs to turn a pool of candidate
// memories into a final selection for one user message.
type Request struct {
	Memories        []*types.Memory
	Message         string
	CurrentProject  string
	QueryEmbedding  []float32
	AlreadyInjected map[string]bool // per-session dedup set, read-only here
	Options         Options
}

// Result is Evaluate's return value: the selected memories in presentation
// order plus the diagnostic record for this pass.
type Result struct {
	Selected   []Candidate
	Backfilled []string
	Diagnostic Diagnostic
}

// Evaluate runs the full activation pipeline from spec §4.2: pre-filter,
// six-signal computation, relevance gate, importance scoring, and two-tier
// selection with related-memory backfill. It does not mutate req.AlreadyInjected
// — the caller folds the returned ids into the session's dedup set once
// injection actually succeeds.
func Evaluate(req Request) Result {
	diag := Diagnostic{CandidateCount: len(req.Memories)}

	var candidates []Candidate
	for _, m := range req.Memories {
		if !PassesPreFilter(m, req.CurrentProject, req.Message, req.AlreadyInjected) {
			continue
		}
		diag.PassedPreFilter++

		signals := ComputeSignals(m, req.Message, req.QueryEmbedding)
		if !PassesRelevanceGate(signals) {
			continue
		}
		diag.recordGatePass(signals)

		candidates = append(candidates, Candidate{
			Memory:     m,
			Signals:    signals,
			Importance: ImportanceScore(m, req.Message, signals),
		})
	}

	selected, backfilled := Select(candidates, req.Options)

	diag.SelectedIDs = make([]string, 0, len(selected))
	for _, c := range selected {
		diag.SelectedIDs = append(diag.SelectedIDs, c.Memory.ID)
	}
	diag.BackfilledIDs = backfilled

	return Result{Selected: selected, Backfilled: backfilled, Diagnostic: diag}
}

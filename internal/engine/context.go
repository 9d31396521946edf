package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scrypster/continuity/internal/lifecycle"
	"github.com/scrypster/continuity/internal/retrieval"
	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// ContextPayload is what get_context returns: either a primer (first call of
// a session) or a formatted block of retrieved memories.
type ContextPayload struct {
	IsPrimer     bool
	PrimerText   string
	MemoriesText string
	Selected     []retrieval.Candidate
	Diagnostic   retrieval.Diagnostic
}

// GetContext implements spec §4.4's get_context. On the first call for a
// (project, session) pair (message_count == 0) it returns a primer and
// performs no retrieval; every subsequent call embeds the message and runs
// the Retrieval Engine.
func (e *Engine) GetContext(ctx context.Context, sessionID, projectID, currentMessage string) (*ContextPayload, error) {
	pdb, err := e.store.Open(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("engine: GetContext: %w", err)
	}
	sess, err := pdb.GetOrCreateSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("engine: GetContext: %w", err)
	}

	if sess.MessageCount == 0 {
		if _, err := lifecycle.ApplyDecay(ctx, pdb, pdb.AllMemories(ctx)); err != nil {
			e.logf("engine: ApplyDecay failed for project=%s: %v", projectID, err)
		}
		text, err := e.buildPrimer(ctx, pdb)
		if err != nil {
			return nil, fmt.Errorf("engine: GetContext: %w", err)
		}
		return &ContextPayload{IsPrimer: true, PrimerText: text}, nil
	}

	return e.retrieveContext(ctx, pdb, sess, projectID, currentMessage)
}

// buildPrimer assembles the first-call payload: temporal context, the
// personal primer (from the global project), the last session summary, and
// the latest project snapshot (spec §4.4).
func (e *Engine) buildPrimer(ctx context.Context, pdb *store.ProjectDB) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Today is %s\n\n", time.Now().Format("2006-01-02"))

	global, err := e.store.Global(ctx)
	if err != nil {
		return "", err
	}
	if primer := global.Primer(); primer != nil && primer.Content != "" {
		b.WriteString(primer.Content)
		b.WriteString("\n\n")
	}

	if summary := pdb.LatestSummary(); summary != nil {
		b.WriteString("## Last session\n")
		b.WriteString(summary.Summary)
		b.WriteString("\n\n")
	}

	if snapshot := pdb.LatestSnapshot(); snapshot != nil {
		b.WriteString("## Project snapshot\n")
		b.WriteString(snapshot.Snapshot)
		b.WriteString("\n")
	}

	return b.String(), nil
}

// retrieveContext is the non-primer path: embed the message, run the
// Retrieval Engine over the project's memories together with the global
// project's memories, with the session's
// dedup set applied, stamp surfacing on every selected memory, and fold the
// newly-selected ids into the session's injected set.
func (e *Engine) retrieveContext(ctx context.Context, pdb *store.ProjectDB, sess *types.Session, projectID, currentMessage string) (*ContextPayload, error) {
	state := e.sessionFor(projectID, sess.SessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	var queryVec []float32
	if e.embed != nil && currentMessage != "" {
		vec, err := e.embed.Embed(ctx, currentMessage)
		if err == nil {
			queryVec = vec
		} else {
			e.logf("engine: embed query failed, vector signal disabled: %v", err)
		}
	}

	already := make(map[string]bool, len(state.injected))
	for id := range state.injected {
		already[id] = true
	}

	memories := pdb.AllMemories(ctx)
	if projectID != types.GlobalProjectID {
		global, err := e.store.Global(ctx)
		if err != nil {
			return nil, fmt.Errorf("engine: GetContext: %w", err)
		}
		memories = append(memories, global.AllMemories(ctx)...)
	}

	req := retrieval.Request{
		Memories:        memories,
		Message:         currentMessage,
		CurrentProject:  projectID,
		QueryEmbedding:  queryVec,
		AlreadyInjected: already,
		Options:         e.cfg.RetrievalOptions,
	}
	result := retrieval.Evaluate(req)
	result.Diagnostic.Log(e.logger)

	if err := e.stampSurfaced(ctx, pdb, sess.MessageCount, result.Selected); err != nil {
		e.logf("engine: stampSurfaced failed: %v", err)
	}

	for _, c := range result.Selected {
		state.injected[c.Memory.ID] = true
	}

	return &ContextPayload{
		MemoriesText: FormatMemoriesBlock(result.Selected),
		Selected:     result.Selected,
		Diagnostic:   result.Diagnostic,
	}, nil
}

// FormatMemoriesBlock renders the selected candidates as the markdown block
// injected into the assistant's context.
func FormatMemoriesBlock(selected []retrieval.Candidate) string {
	if len(selected) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Relevant memories\n\n")
	for _, c := range selected {
		m := c.Memory
		headline := m.Headline
		if headline == "" {
			headline = m.Content
		}
		fmt.Fprintf(&b, "- [%s] %s\n", m.ContextType, headline)
	}
	return b.String()
}

// stampSurfaced records last_surfaced for every selected memory and resets
// its decay clock via lifecycle.ResetOnSurface (spec §4.3.3: "On surfacing
// (retrieval success): reset sessions_since_surfaced... and restore
// retrieval_weight"). Selected candidates may belong to either the current
// project's store or the global store, so each update is routed to the
// store that actually owns the memory rather than assumed to be pdb.
func (e *Engine) stampSurfaced(ctx context.Context, pdb *store.ProjectDB, sessionNumber int, selected []retrieval.Candidate) error {
	for _, c := range selected {
		owner := pdb
		if c.Memory.Scope == types.ScopeGlobal {
			global, err := e.store.Global(ctx)
			if err != nil {
				return err
			}
			owner = global
		}
		if err := owner.UpdateMemory(ctx, c.Memory.ID, func(m *types.Memory) {
			m.LastSurfaced = sessionNumber
		}); err != nil {
			return err
		}
		if err := lifecycle.ResetOnSurface(ctx, owner, c.Memory.ID); err != nil {
			return err
		}
	}
	return nil
}

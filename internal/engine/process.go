package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scrypster/continuity/internal/connections"
	"github.com/scrypster/continuity/internal/embedder"
	"github.com/scrypster/continuity/internal/lifecycle"
	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// CurationTrigger enumerates the reasons trigger_curation may fire (spec
// §4.4).
type CurationTrigger string

const (
	TriggerPreCompact CurationTrigger = "pre_compact"
	TriggerSessionEnd CurationTrigger = "session_end"
	TriggerManual     CurationTrigger = "manual"
)

// ProcessMessage implements spec §4.4's process_message: increment
// message_count and update last_active for the (session, project) pair.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, projectID string) error {
	pdb, err := e.store.Open(ctx, projectID)
	if err != nil {
		return fmt.Errorf("engine: ProcessMessage: %w", err)
	}
	if _, err := pdb.GetOrCreateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("engine: ProcessMessage: %w", err)
	}
	if _, err := pdb.IncrementMessageCount(ctx, sessionID); err != nil {
		return fmt.Errorf("engine: ProcessMessage: %w", err)
	}
	return nil
}

// curationJob is one unit of work for a project's curation worker.
type curationJob struct {
	sessionID  string
	trigger    CurationTrigger
	transcript string
}

// curationWorker is a single-goroutine, bounded-queue dispatcher for one
// project's trigger_curation calls, matching spec §5's "bounded concurrency
// (default 1 per project)" and serialized-against-itself-per-project
// ordering guarantee. Grounded on memory_engine.go's worker-pool idiom,
// reduced to pool size 1.
type curationWorker struct {
	queue chan curationJob
	done  chan struct{}
	wg    sync.WaitGroup
}

func (e *Engine) workerFor(projectID string) *curationWorker {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.workers[projectID]
	if !ok {
		w = &curationWorker{
			queue: make(chan curationJob, e.cfg.QueueSize),
			done:  make(chan struct{}),
		}
		e.workers[projectID] = w
		w.wg.Add(1)
		go e.runWorker(projectID, w)
	}
	return w
}

func (e *Engine) runWorker(projectID string, w *curationWorker) {
	defer w.wg.Done()
	for {
		select {
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			e.runCuration(e.workerCtx, projectID, job)
		case <-w.done:
			return
		case <-e.workerCtx.Done():
			return
		}
	}
}

func (w *curationWorker) drain(ctx context.Context) {
	close(w.done)
	w.wg.Wait()
}

// TriggerCuration implements spec §4.4's trigger_curation: dispatch to the
// external curator asynchronously (fire-and-forget to the caller). On
// curator success, persist memories via Store, then invoke the Lifecycle
// Manager. A management log is written regardless of outcome.
func (e *Engine) TriggerCuration(ctx context.Context, sessionID, projectID, transcript string, trigger CurationTrigger) error {
	e.mu.RLock()
	started := e.started && !e.shuttingDown
	e.mu.RUnlock()
	if !started {
		return fmt.Errorf("engine: not started")
	}
	if e.curator == nil {
		return fmt.Errorf("engine: %w", &connections.AgentError{Agent: "curator", Kind: connections.KindAgentFailure, Err: fmt.Errorf("no curator configured")})
	}

	w := e.workerFor(projectID)
	job := curationJob{sessionID: sessionID, trigger: trigger, transcript: transcript}
	select {
	case w.queue <- job:
		return nil
	default:
		return fmt.Errorf("engine: curation queue full for project %s", projectID)
	}
}

// runCuration executes one curation pass end to end: curator call,
// persistence, and lifecycle management. A curator or persistence failure
// is recorded as a failed management log; after a successful persist the
// log is written by lifecycle.Manager.Run when a manager is configured
// (spec §4.3.5).
func (e *Engine) runCuration(ctx context.Context, projectID string, job curationJob) {
	dispatcher := connections.NewDispatcher("curator", e.cfg.Dispatcher)
	logFailure := func(cause error) {
		pdb, perr := e.store.Open(ctx, projectID)
		if perr != nil {
			return
		}
		_ = pdb.AppendManagementLog(ctx, &types.ManagementLog{
			ProjectID:     projectID,
			SessionID:     job.sessionID,
			FailureReason: cause.Error(),
		})
	}

	result, err := dispatcher.Dispatch(ctx, func(callCtx context.Context) (interface{}, error) {
		return e.curator.Curate(callCtx, connections.CuratorRequest{
			Transcript: job.transcript,
			ProjectID:  projectID,
			SessionID:  job.sessionID,
		})
	})
	if err != nil {
		e.logf("engine: curation failed for project=%s session=%s: %v", projectID, job.sessionID, err)
		logFailure(err)
		return
	}

	curation := result.(*connections.CurationResult)
	ids, err := e.persistCuration(ctx, projectID, curation)
	if err != nil {
		e.logf("engine: persisting curation failed for project=%s session=%s: %v", projectID, job.sessionID, err)
		logFailure(err)
		return
	}

	if e.manager == nil {
		return
	}

	pdb, err := e.store.Open(ctx, projectID)
	sessionNumber := 0
	if err == nil {
		if sess, serr := pdb.GetOrCreateSession(ctx, job.sessionID); serr == nil {
			sessionNumber = sess.MessageCount
		}
	}

	evidence := lifecycle.SessionEvidence{}
	if curation.SessionSummary != nil {
		evidence.Summary = curation.SessionSummary.Summary
	}
	if curation.ProjectSnapshot != nil {
		evidence.Snapshot = curation.ProjectSnapshot.Snapshot
	}

	log, err := e.manager.Run(ctx, lifecycle.Input{
		ProjectID:     projectID,
		SessionID:     job.sessionID,
		NewMemoryIDs:  ids,
		Evidence:      evidence,
		SessionNumber: sessionNumber,
	})
	if err != nil {
		e.logf("engine: lifecycle manager run failed for project=%s: %v (log=%+v)", projectID, err, log)
	}

	e.runManagementAgent(ctx, pdb, projectID, ids, curation, sessionNumber)
}

// runManagementAgent dispatches the optional external management agent
// (spec §6's Manager contract) after the deterministic Lifecycle Manager
// pass. It is opaque to the core beyond ManagerBrief/ManagerReport: the
// core logs the agent's report but does not act on its Actions directly,
// since the report's side effects (if any) are the agent runner's
// responsibility (connections.ManagerAgent's doc comment).
func (e *Engine) runManagementAgent(ctx context.Context, pdb *store.ProjectDB, projectID string, newMemoryIDs []string, curation *connections.CurationResult, sessionNumber int) {
	if e.managerA == nil || pdb == nil {
		return
	}

	summary := ""
	if curation.SessionSummary != nil {
		summary = curation.SessionSummary.Summary
	}
	snapshot := ""
	if curation.ProjectSnapshot != nil {
		snapshot = curation.ProjectSnapshot.Snapshot
	}

	brief := connections.ManagerBrief{
		NewMemoryIDs:  newMemoryIDs,
		Summary:       summary,
		Snapshot:      snapshot,
		SessionNumber: sessionNumber,
		SandboxRoot:   pdb.Dir(),
		CurrentDate:   time.Now(),
		SkillPrompt:   managementSkillPrompt,
	}

	dispatcher := connections.NewDispatcher("manager", e.cfg.Dispatcher)
	result, err := dispatcher.Dispatch(ctx, func(callCtx context.Context) (interface{}, error) {
		return e.managerA.Manage(callCtx, brief)
	})
	if err != nil {
		e.logf("engine: management agent failed for project=%s: %v", projectID, err)
		return
	}

	report := result.(*connections.ManagerReport)
	e.logf("engine: management agent report for project=%s: %d action(s): %s", projectID, len(report.Actions), report.Summary)
}

// managementSkillPrompt names the reconciliation skill the external
// management agent runs under (spec §6: "the memory-management skill
// prompt"). The core ships this as a fixed identifier; the agent runner
// resolves it to the actual prompt text.
const managementSkillPrompt = "memory-management"

// persistCuration writes the curator's memories and companion records via
// Store, re-applying defaults/enum canonicalization rather than trusting
// the curator's output verbatim (spec §6: "the core trusts the shape but
// re-applies defaults and validates enums").
func (e *Engine) persistCuration(ctx context.Context, projectID string, curation *connections.CurationResult) ([]string, error) {
	ids := make([]string, 0, len(curation.Memories))
	for _, m := range curation.Memories {
		m.ContextType = types.CanonicalContextType(string(m.ContextType))
		types.ApplyDefaults(m)

		target := projectID
		if m.Scope == types.ScopeGlobal {
			target = types.GlobalProjectID
			m.ProjectID = types.GlobalProjectID
		} else if m.ProjectID == "" {
			m.ProjectID = projectID
		}
		if m.Status == "" {
			m.Status = types.StatusActive
		}
		pdb, err := e.store.Open(ctx, target)
		if err != nil {
			return nil, err
		}

		if e.embed != nil {
			if err := embedder.EmbedAndAttach(ctx, e.embed, m); err != nil {
				e.logf("engine: embedding memory %s failed: %v", m.ID, err)
			}
		}

		id, err := pdb.InsertMemory(ctx, m)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	pdb, err := e.store.Open(ctx, projectID)
	if err != nil {
		return ids, err
	}
	if curation.SessionSummary != nil {
		curation.SessionSummary.ProjectID = projectID
		if err := pdb.AppendSummary(ctx, curation.SessionSummary); err != nil {
			return ids, err
		}
	}
	if curation.ProjectSnapshot != nil {
		curation.ProjectSnapshot.ProjectID = projectID
		if err := pdb.AppendSnapshot(ctx, curation.ProjectSnapshot); err != nil {
			return ids, err
		}
	}

	return ids, nil
}

// Checkpoint is a convenience combining session-end curation dispatch with
// ending the session: it queues a TriggerSessionEnd curation job on the
// project's worker, clears the session's dedup state, and returns as soon
// as the job is queued. gracePeriod is not consulted here; Checkpoint starts
// no goroutine of its own and does not wait for the curation pass.
func (e *Engine) Checkpoint(ctx context.Context, sessionID, projectID, transcript string, gracePeriod time.Duration) error {
	if err := e.TriggerCuration(ctx, sessionID, projectID, transcript, TriggerSessionEnd); err != nil {
		return err
	}
	e.EndSession(projectID, sessionID)
	return nil
}

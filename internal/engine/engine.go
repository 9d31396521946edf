// Package engine is the Orchestrator (spec §4.4): the single component
// every HTTP handler talks to. It wires the Store, Embedder, Retrieval
// Engine, Lifecycle Manager, and the curator/manager Dispatchers together
// behind three public operations: get_context, process_message, and
// trigger_curation.
//
// Grounded on internal/engine/memory_engine.go's MemoryEngine: the same
// sync.RWMutex-guarded started/shuttingDown flags, Start/Shutdown lifecycle,
// and background-goroutine dispatch over a buffered job channel, adapted
// from enrichment-job dispatch to curator/management-agent dispatch.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/scrypster/continuity/internal/connections"
	"github.com/scrypster/continuity/internal/embedder"
	"github.com/scrypster/continuity/internal/lifecycle"
	"github.com/scrypster/continuity/internal/retrieval"
	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// Logger is the diagnostic sink every Retrieval Engine call and curation
// dispatch writes to (spec §4.2's "surfaced through the logger interface").
type Logger interface {
	Printf(format string, args ...any)
}

// Config tunes the Orchestrator's background curation dispatch.
type Config struct {
	// QueueSize bounds how many pending trigger_curation jobs a single
	// project's worker will buffer before TriggerCuration starts rejecting.
	QueueSize int

	RetrievalOptions retrieval.Options
	Dispatcher       connections.DispatcherConfig
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 8
	}
	return c
}

// Engine is the Orchestrator. One Engine serves every project; per-project
// curation workers are created lazily on first trigger_curation.
type Engine struct {
	store    *store.Store
	embed    embedder.Embedder
	manager  *lifecycle.Manager
	curator  connections.Curator
	managerA connections.ManagerAgent
	logger   Logger
	cfg      Config

	mu           sync.RWMutex
	started      bool
	shuttingDown bool
	sessions     map[string]*sessionState
	workers      map[string]*curationWorker
	workerCtx    context.Context
	workerCancel context.CancelFunc
}

// sessionState tracks the per-session injected-id dedup set (spec §4.2's
// "Per-session deduplication").
type sessionState struct {
	mu       sync.Mutex
	injected map[string]bool
}

// New constructs an Engine. curator/managerAgent may be nil in deployments
// that haven't wired an external agent yet; trigger_curation then fails
// fast with a KindAgentFailure AgentError instead of panicking.
func New(st *store.Store, embed embedder.Embedder, mgr *lifecycle.Manager, curator connections.Curator, managerAgent connections.ManagerAgent, logger Logger, cfg Config) *Engine {
	return &Engine{
		store:    st,
		embed:    embed,
		manager:  mgr,
		curator:  curator,
		managerA: managerAgent,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*sessionState),
		workers:  make(map[string]*curationWorker),
	}
}

// Start boots the Orchestrator's background dispatch. Must be called once
// before trigger_curation is used.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine: already started")
	}
	e.workerCtx, e.workerCancel = context.WithCancel(ctx)
	e.started = true
	return nil
}

// Shutdown stops accepting new curation dispatches and drains any
// in-flight workers.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine: not started")
	}
	e.shuttingDown = true
	workers := make([]*curationWorker, 0, len(e.workers))
	for _, w := range e.workers {
		workers = append(workers, w)
	}
	e.mu.Unlock()

	if e.workerCancel != nil {
		e.workerCancel()
	}
	for _, w := range workers {
		w.drain(ctx)
	}

	e.mu.Lock()
	e.started = false
	e.shuttingDown = false
	e.mu.Unlock()
	return nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

func (e *Engine) sessionKey(projectID, sessionID string) string {
	return projectID + "/" + sessionID
}

// sessionFor returns (creating if absent) the in-memory dedup state for a
// (project, session) pair.
func (e *Engine) sessionFor(projectID, sessionID string) *sessionState {
	key := e.sessionKey(projectID, sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[key]
	if !ok {
		s = &sessionState{injected: make(map[string]bool)}
		e.sessions[key] = s
	}
	return s
}

// EndSession clears a session's injected-id set (spec §4.2: "The set is
// cleared when the session ends"). The project's curation worker is left
// running.
func (e *Engine) EndSession(projectID, sessionID string) {
	key := e.sessionKey(projectID, sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, key)
}

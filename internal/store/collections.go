package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/continuity/pkg/types"
)

func (p *ProjectDB) loadSessions() error {
	dir := filepath.Join(p.dir, "sessions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return newErr(KindIO, "loadSessions", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return newErr(KindIO, "loadSessions", err)
		}
		s, err := DecodeSession(raw)
		if err != nil {
			return fmt.Errorf("store: loadSessions %s: %w", e.Name(), err)
		}
		p.sessions[s.SessionID] = s
	}
	return nil
}

// GetOrCreateSession returns the session for sessionID, creating it (with
// message_count 0) on first reference, matching spec §3: "Created on first
// /context call for a pair".
func (p *ProjectDB) GetOrCreateSession(ctx context.Context, sessionID string) (*types.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.sessions[sessionID]; ok {
		cp := *s
		return &cp, nil
	}
	s := &types.Session{
		SessionID:   sessionID,
		ProjectID:   p.projectID,
		LastActive:  time.Now(),
	}
	if err := p.writeSessionLocked(s); err != nil {
		return nil, err
	}
	p.sessions[sessionID] = s
	cp := *s
	return &cp, nil
}

// IncrementMessageCount bumps message_count and last_active for an existing
// session (created implicitly if absent) and returns the new count.
func (p *ProjectDB) IncrementMessageCount(ctx context.Context, sessionID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		s = &types.Session{SessionID: sessionID, ProjectID: p.projectID}
		p.sessions[sessionID] = s
	}
	s.MessageCount++
	s.LastActive = time.Now()
	if err := p.writeSessionLocked(s); err != nil {
		return 0, err
	}
	return s.MessageCount, nil
}

// AllSessions returns a snapshot of every session tracked for this project,
// used by the stats endpoint to compute totalSessions/latestSession.
func (p *ProjectDB) AllSessions(ctx context.Context) []*types.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*types.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// MarkFirstSessionCompleted sets first_session_completed on sessionID.
func (p *ProjectDB) MarkFirstSessionCompleted(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return newErr(KindNotFound, "MarkFirstSessionCompleted", ErrNotFound)
	}
	s.FirstSessionCompleted = true
	return p.writeSessionLocked(s)
}

func (p *ProjectDB) writeSessionLocked(s *types.Session) error {
	raw, err := EncodeSession(s)
	if err != nil {
		return err
	}
	path := filepath.Join(p.dir, "sessions", s.SessionID+".md")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return newErr(KindIO, "writeSession", err)
	}
	return nil
}

func (p *ProjectDB) loadSummaries() error {
	dir := filepath.Join(p.dir, "summaries")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return newErr(KindIO, "loadSummaries", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return newErr(KindIO, "loadSummaries", err)
		}
		s, err := DecodeSessionSummary(raw)
		if err != nil {
			return fmt.Errorf("store: loadSummaries %s: %w", e.Name(), err)
		}
		p.summaries = append(p.summaries, s)
	}
	sort.Slice(p.summaries, func(i, j int) bool { return p.summaries[i].CreatedAt.Before(p.summaries[j].CreatedAt) })
	return nil
}

// AppendSummary writes a new append-only session summary record.
func (p *ProjectDB) AppendSummary(ctx context.Context, s *types.SessionSummary) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	raw, err := EncodeSessionSummary(s)
	if err != nil {
		return err
	}
	path := filepath.Join(p.dir, "summaries", s.ID+".md")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return newErr(KindIO, "AppendSummary", err)
	}
	p.mu.Lock()
	p.summaries = append(p.summaries, s)
	p.mu.Unlock()
	return nil
}

// LatestSummary returns the most recently created summary, or nil.
func (p *ProjectDB) LatestSummary() *types.SessionSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.summaries) == 0 {
		return nil
	}
	return p.summaries[len(p.summaries)-1]
}

func (p *ProjectDB) loadSnapshots() error {
	dir := filepath.Join(p.dir, "snapshots")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return newErr(KindIO, "loadSnapshots", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return newErr(KindIO, "loadSnapshots", err)
		}
		s, err := DecodeProjectSnapshot(raw)
		if err != nil {
			return fmt.Errorf("store: loadSnapshots %s: %w", e.Name(), err)
		}
		p.snapshots = append(p.snapshots, s)
	}
	sort.Slice(p.snapshots, func(i, j int) bool { return p.snapshots[i].CreatedAt.Before(p.snapshots[j].CreatedAt) })
	return nil
}

// AppendSnapshot writes a new append-only project snapshot record.
func (p *ProjectDB) AppendSnapshot(ctx context.Context, s *types.ProjectSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	raw, err := EncodeProjectSnapshot(s)
	if err != nil {
		return err
	}
	path := filepath.Join(p.dir, "snapshots", s.ID+".md")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return newErr(KindIO, "AppendSnapshot", err)
	}
	p.mu.Lock()
	p.snapshots = append(p.snapshots, s)
	p.mu.Unlock()
	return nil
}

// LatestSnapshot returns the most recently created snapshot, or nil.
func (p *ProjectDB) LatestSnapshot() *types.ProjectSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.snapshots) == 0 {
		return nil
	}
	return p.snapshots[len(p.snapshots)-1]
}

func (p *ProjectDB) loadManagementLogs() error {
	dir := filepath.Join(p.dir, "management-logs")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return newErr(KindIO, "loadManagementLogs", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return newErr(KindIO, "loadManagementLogs", err)
		}
		l, err := DecodeManagementLog(raw)
		if err != nil {
			return fmt.Errorf("store: loadManagementLogs %s: %w", e.Name(), err)
		}
		p.managementLogs = append(p.managementLogs, l)
	}
	sort.Slice(p.managementLogs, func(i, j int) bool {
		return p.managementLogs[i].CreatedAt.Before(p.managementLogs[j].CreatedAt)
	})
	return nil
}

// AppendManagementLog writes a new append-only management log record. A log
// is written regardless of the management pass's outcome (spec §4.4).
func (p *ProjectDB) AppendManagementLog(ctx context.Context, l *types.ManagementLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	raw, err := EncodeManagementLog(l)
	if err != nil {
		return err
	}
	path := filepath.Join(p.dir, "management-logs", l.ID+".md")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return newErr(KindIO, "AppendManagementLog", err)
	}
	p.mu.Lock()
	p.managementLogs = append(p.managementLogs, l)
	p.mu.Unlock()
	return nil
}

func (p *ProjectDB) loadPrimer() error {
	path := filepath.Join(p.dir, "primer", "personal-primer.md")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return newErr(KindIO, "loadPrimer", err)
	}
	primer, err := DecodePrimer(raw)
	if err != nil {
		return fmt.Errorf("store: loadPrimer: %w", err)
	}
	p.primer = primer
	return nil
}

// Primer returns the global personal primer, or nil if it has never been
// written. Only meaningful on the global ProjectDB.
func (p *ProjectDB) Primer() *types.PersonalPrimer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.primer == nil {
		return nil
	}
	cp := *p.primer
	return &cp
}

// WritePrimer creates or overwrites the singleton personal primer document.
func (p *ProjectDB) WritePrimer(ctx context.Context, content string) error {
	primer := &types.PersonalPrimer{Content: content, UpdatedAt: time.Now()}
	raw, err := EncodePrimer(primer)
	if err != nil {
		return err
	}
	path := filepath.Join(p.dir, "primer", "personal-primer.md")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return newErr(KindIO, "WritePrimer", err)
	}
	p.mu.Lock()
	p.primer = primer
	p.mu.Unlock()
	return nil
}

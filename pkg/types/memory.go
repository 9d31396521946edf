package types

import "time"

// Memory is the central entity of the continuity system: a durable knowledge
// artifact extracted from a conversation transcript by the (external)
// curator agent, enriched with retrieval signals, and subject to lifecycle
// management by internal/lifecycle.Manager.
//
// Field groups follow spec §3: identity, content, scores, classification,
// retrieval signals, flags, lifecycle counters, relationships, vector.
type Memory struct {
	// Identity
	ID        string `json:"id" yaml:"id"`
	SessionID string `json:"session_id" yaml:"session_id"`
	ProjectID string `json:"project_id" yaml:"project_id"`

	// Content
	Headline     string   `json:"headline" yaml:"headline"`
	Content      string   `json:"content" yaml:"-"` // carried as markdown body, not frontmatter
	Reasoning    string   `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	RelatedFiles []string `json:"related_files,omitempty" yaml:"related_files,omitempty"`

	// Scores
	ImportanceWeight float64 `json:"importance_weight" yaml:"importance_weight"`
	ConfidenceScore  float64 `json:"confidence_score" yaml:"confidence_score"`

	// Classification
	ContextType   ContextType   `json:"context_type" yaml:"context_type"`
	Scope         Scope         `json:"scope" yaml:"scope"`
	TemporalClass TemporalClass `json:"temporal_class" yaml:"temporal_class"`
	Status        Status        `json:"status" yaml:"status"`

	// Retrieval signals
	TriggerPhrases []string `json:"trigger_phrases,omitempty" yaml:"trigger_phrases,omitempty"`
	SemanticTags   []string `json:"semantic_tags,omitempty" yaml:"semantic_tags,omitempty"`
	AntiTriggers   []string `json:"anti_triggers,omitempty" yaml:"anti_triggers,omitempty"`
	Domain         string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Feature        string   `json:"feature,omitempty" yaml:"feature,omitempty"`
	QuestionTypes  []string `json:"question_types,omitempty" yaml:"question_types,omitempty"`

	// Flags
	ActionRequired         bool `json:"action_required" yaml:"action_required"`
	ProblemSolutionPair    bool `json:"problem_solution_pair" yaml:"problem_solution_pair"`
	AwaitingImplementation bool `json:"awaiting_implementation" yaml:"awaiting_implementation"`
	AwaitingDecision       bool `json:"awaiting_decision" yaml:"awaiting_decision"`
	ExcludeFromRetrieval   bool `json:"exclude_from_retrieval" yaml:"exclude_from_retrieval"`

	// Lifecycle counters
	SessionCreated        int     `json:"session_created" yaml:"session_created"`
	SessionUpdated        int     `json:"session_updated" yaml:"session_updated"`
	LastSurfaced          int     `json:"last_surfaced" yaml:"last_surfaced"`
	SessionsSinceSurfaced int     `json:"sessions_since_surfaced" yaml:"sessions_since_surfaced"`
	FadeRate              float64 `json:"fade_rate" yaml:"fade_rate"`
	RetrievalWeight       float64 `json:"retrieval_weight" yaml:"retrieval_weight"`
	ExpiresAfterSessions  int     `json:"expires_after_sessions,omitempty" yaml:"expires_after_sessions,omitempty"`

	// Relationships (ids only — never embed records inside each other)
	Supersedes   string   `json:"supersedes,omitempty" yaml:"supersedes,omitempty"`
	SupersededBy string   `json:"superseded_by,omitempty" yaml:"superseded_by,omitempty"`
	Resolves     []string `json:"resolves,omitempty" yaml:"resolves,omitempty"`
	ResolvedBy   string   `json:"resolved_by,omitempty" yaml:"resolved_by,omitempty"`
	RelatedTo    []string `json:"related_to,omitempty" yaml:"related_to,omitempty"`
	Blocks       []string `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	BlockedBy    []string `json:"blocked_by,omitempty" yaml:"blocked_by,omitempty"`

	// Vector
	Embedding      []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
	EmbeddingStale bool      `json:"embedding_stale" yaml:"embedding_stale"`

	// Bookkeeping
	SchemaVersion int       `json:"schema_version" yaml:"schema_version"`
	ContentHash   string    `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// EmbeddingDimension is the fixed vector width the system requires (spec
// invariant 7). Any non-nil Embedding must have exactly this many elements.
const EmbeddingDimension = 384

// CurrentSchemaVersion is the schema version new records are written with.
const CurrentSchemaVersion = 2

// IsCandidate reports whether m can ever be considered for retrieval,
// independent of the current query (spec §4.2 pre-filter, invariant 4).
func (m *Memory) IsCandidate() bool {
	return m.Status == StatusActive && !m.ExcludeFromRetrieval && m.SupersededBy == ""
}

// ValidateScopeProjectInvariant enforces invariant 5: scope=global implies
// project_id="global" and vice versa.
func (m *Memory) ValidateScopeProjectInvariant() bool {
	if m.Scope == ScopeGlobal {
		return m.ProjectID == GlobalProjectID
	}
	if m.Scope == ScopeProject {
		return m.ProjectID != GlobalProjectID
	}
	return false
}

// ValidateEmbeddingInvariant enforces invariant 7.
func (m *Memory) ValidateEmbeddingInvariant() bool {
	return m.Embedding == nil || len(m.Embedding) == EmbeddingDimension
}

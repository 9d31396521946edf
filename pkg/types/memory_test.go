package types

import "testing"

func newTestMemory() *Memory {
	return &Memory{
		ID:               "mem-1",
		SessionID:        "sess-1",
		ProjectID:        "proj-1",
		Headline:         "test memory",
		ImportanceWeight: 0.7,
		ContextType:      ContextTechnical,
		Scope:            ScopeProject,
		Status:           StatusActive,
	}
}

func TestIsCandidate(t *testing.T) {
	m := newTestMemory()
	if !m.IsCandidate() {
		t.Error("expected active, non-excluded, non-superseded memory to be a candidate")
	}

	m2 := newTestMemory()
	m2.ExcludeFromRetrieval = true
	if m2.IsCandidate() {
		t.Error("excluded memory must not be a candidate")
	}

	m3 := newTestMemory()
	m3.Status = StatusPending
	if m3.IsCandidate() {
		t.Error("pending memory must not be a candidate")
	}

	m4 := newTestMemory()
	m4.SupersededBy = "mem-2"
	if m4.IsCandidate() {
		t.Error("superseded-by memory must not be a candidate even if status is active")
	}
}

func TestValidateScopeProjectInvariant(t *testing.T) {
	global := newTestMemory()
	global.Scope = ScopeGlobal
	global.ProjectID = GlobalProjectID
	if !global.ValidateScopeProjectInvariant() {
		t.Error("global scope with global project id should be valid")
	}

	badGlobal := newTestMemory()
	badGlobal.Scope = ScopeGlobal
	badGlobal.ProjectID = "proj-1"
	if badGlobal.ValidateScopeProjectInvariant() {
		t.Error("global scope with non-global project id should be invalid")
	}

	project := newTestMemory()
	if !project.ValidateScopeProjectInvariant() {
		t.Error("project scope with real project id should be valid")
	}

	badProject := newTestMemory()
	badProject.Scope = ScopeProject
	badProject.ProjectID = GlobalProjectID
	if badProject.ValidateScopeProjectInvariant() {
		t.Error("project scope with global project id should be invalid")
	}
}

func TestValidateEmbeddingInvariant(t *testing.T) {
	m := newTestMemory()
	if !m.ValidateEmbeddingInvariant() {
		t.Error("nil embedding should be valid")
	}

	m.Embedding = make([]float32, EmbeddingDimension)
	if !m.ValidateEmbeddingInvariant() {
		t.Error("full-width embedding should be valid")
	}

	m.Embedding = make([]float32, 10)
	if m.ValidateEmbeddingInvariant() {
		t.Error("wrong-width embedding should be invalid")
	}
}

func TestApplyDefaultsFillsGaps(t *testing.T) {
	m := &Memory{ContextType: ContextArchitecture, ImportanceWeight: 0.8}
	ApplyDefaults(m)
	if m.TemporalClass != TemporalLongTerm {
		t.Errorf("expected long_term default, got %q", m.TemporalClass)
	}
	if m.Scope != ScopeProject {
		t.Errorf("expected project scope default, got %q", m.Scope)
	}
	if m.RetrievalWeight != m.ImportanceWeight {
		t.Errorf("expected retrieval_weight to seed from importance_weight, got %v", m.RetrievalWeight)
	}
	if m.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected schema_version %d, got %d", CurrentSchemaVersion, m.SchemaVersion)
	}
}

func TestApplyDefaultsRespectsExplicitValues(t *testing.T) {
	m := &Memory{
		ContextType:     ContextTechnical,
		TemporalClass:   TemporalEternal,
		Scope:           ScopeGlobal,
		RetrievalWeight: 0.9,
		SchemaVersion:   1,
	}
	ApplyDefaults(m)
	if m.TemporalClass != TemporalEternal {
		t.Error("explicit temporal_class must not be overridden")
	}
	if m.Scope != ScopeGlobal {
		t.Error("explicit scope must not be overridden")
	}
	if m.RetrievalWeight != 0.9 {
		t.Error("explicit retrieval_weight must not be overridden")
	}
	if m.SchemaVersion != 1 {
		t.Error("explicit schema_version must not be overridden")
	}
}
